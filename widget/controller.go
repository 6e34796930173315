package widget

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"clai-chat/internal/dto"
)

const (
	defaultWelcomeMessage = "Hi there! 👋 How can I help you today?"
	bootstrapApology      = "Sorry, there was an error connecting to the server. Please try again later."
	leadApology           = "Sorry, there was an error submitting your information. Please try again later."
	leadThankYou          = "Thank you! Your information has been submitted."

	// Focus is deferred so an opening transition can start first.
	focusDelay = 300 * time.Millisecond
)

// leadTriggers are matched case-insensitively against bot messages; any hit
// activates lead capture.
var leadTriggers = []string{
	"email address",
	"contact information",
	"reach out",
	"get in touch",
	"provide your",
}

var defaultLeadFields = []string{"name", "email"}

// Controller owns the session state and sequences the conversation
// lifecycle. Handlers are serialized behind a single mutex, so state is only
// ever mutated by one event at a time.
type Controller struct {
	config  Config
	storage Storage
	api     *APIClient
	socket  Realtime

	mu             sync.Mutex
	surface        Surface
	conversationID string
	attribution    attribution
	open           bool
	typingVisible  bool
	leadActive     bool
}

func NewController(config Config, storage Storage, api *APIClient, socket Realtime) *Controller {
	return &Controller{
		config:  config,
		storage: storage,
		api:     api,
		socket:  socket,
	}
}

// Initialize renders the shell with the welcome message and registers the
// realtime subscriptions. A missing surface is logged and aborts quietly; the
// host page is never disturbed.
func (c *Controller) Initialize(surface Surface) {
	if surface == nil {
		log.Printf("widget: no presenter surface, skipping initialization")
		return
	}

	c.mu.Lock()
	c.surface = surface
	c.attribution = attributionFromPage(c.config.PageURL, c.config.Referrer)

	title := c.config.Name
	if title == "" {
		title = "Chat"
	}
	surface.Header().SetTitle(title)

	welcome := c.config.WelcomeMessage
	if welcome == "" {
		welcome = defaultWelcomeMessage
	}
	surface.MessageList().Append("bot", welcome)
	c.mu.Unlock()

	surface.Header().OnClose(c.ToggleOpen)
	surface.Input().OnSubmit(c.SubmitUserMessage)
	surface.LeadForm().OnSubmit(c.SubmitLead)

	c.socket.OnMessage(c.handleInboundMessage)
	c.socket.OnTyping(c.handleTyping)
	c.socket.Connect()
}

// ToggleOpen flips the open state. Opening schedules a deferred focus on the
// input so the reveal can begin first.
func (c *Controller) ToggleOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return
	}

	c.open = !c.open
	c.surface.SetOpen(c.open)

	if c.open {
		input := c.surface.Input()
		time.AfterFunc(focusDelay, input.Focus)
	}
}

// SubmitUserMessage appends the message optimistically, then either
// bootstraps a conversation or relays over the realtime channel. The
// optimistic append is never rolled back.
func (c *Controller) SubmitUserMessage(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.surface.MessageList().Append("human", text)

	if c.conversationID == "" {
		c.bootstrap(text)
		return
	}
	c.socket.Send(c.conversationID, text)
}

// bootstrap starts the conversation over REST, joins the realtime room, and
// forwards the message that triggered it. Callers hold the mutex.
func (c *Controller) bootstrap(text string) {
	visitorID, err := c.storage.VisitorID()
	if err != nil {
		log.Printf("widget: visitor id unavailable: %v", err)
	}

	resp, err := c.api.StartConversation(context.Background(), dto.StartConversationRequest{
		ChatbotID:   c.config.ChatbotID,
		VisitorID:   visitorID,
		UTMSource:   c.attribution.Source,
		UTMMedium:   c.attribution.Medium,
		UTMCampaign: c.attribution.Campaign,
		Referrer:    c.attribution.Referrer,
	})
	if err != nil {
		log.Printf("widget: conversation bootstrap failed: %v", err)
		c.surface.MessageList().Append("bot", bootstrapApology)
		return
	}

	c.conversationID = resp.ConversationID
	if err := c.storage.SaveConversation(resp.ConversationID); err != nil {
		log.Printf("widget: persisting conversation id failed: %v", err)
	}

	c.socket.Join(resp.ConversationID)
	c.socket.Send(resp.ConversationID, text)
}

// handleInboundMessage appends bot messages and runs the lead-capture
// heuristic. Echoes of the widget's own messages are dropped; they were
// already appended optimistically.
func (c *Controller) handleInboundMessage(sender, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil || sender == "human" {
		return
	}

	if c.typingVisible {
		c.typingVisible = false
		c.surface.MessageList().HideTyping()
	}
	c.surface.MessageList().Append("bot", content)

	if c.leadActive || !matchesLeadTrigger(content) {
		return
	}

	fields := defaultLeadFields
	if c.config.LeadCapture != nil && len(c.config.LeadCapture.Fields) > 0 {
		fields = c.config.LeadCapture.Fields
	}
	c.leadActive = true
	c.surface.LeadForm().Show(fields)
}

// handleTyping shows the indicator on "started" and hides it on anything
// else. Both directions are idempotent.
func (c *Controller) handleTyping(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return
	}

	if status == "started" {
		if !c.typingVisible {
			c.typingVisible = true
			c.surface.MessageList().ShowTyping()
		}
		return
	}

	if c.typingVisible {
		c.typingVisible = false
		c.surface.MessageList().HideTyping()
	}
}

// SubmitLead validates required fields, creates the lead, and either thanks
// the visitor or apologizes. The form is deactivated on both outcomes; there
// is no retry affordance.
func (c *Controller) SubmitLead(fields LeadFields) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return
	}

	if strings.TrimSpace(fields.Name) == "" {
		c.surface.LeadForm().ShowFieldError("name", "Name is required")
		return
	}
	if strings.TrimSpace(fields.Email) == "" {
		c.surface.LeadForm().ShowFieldError("email", "Email is required")
		return
	}

	_, err := c.api.CreateLead(context.Background(), dto.CreateLeadRequest{
		OrganizationID: c.config.OrganizationID,
		ConversationID: c.conversationID,
		Name:           fields.Name,
		Email:          fields.Email,
		Phone:          fields.Phone,
		Company:        fields.Company,
		Message:        fields.Message,
		UTMSource:      c.attribution.Source,
		UTMMedium:      c.attribution.Medium,
		UTMCampaign:    c.attribution.Campaign,
	})

	c.leadActive = false
	c.surface.LeadForm().Hide()

	if err != nil {
		log.Printf("widget: lead submission failed: %v", err)
		c.surface.MessageList().Append("bot", leadApology)
		return
	}

	c.surface.MessageList().Append("bot", leadThankYou)

	if c.conversationID != "" {
		followUp := fmt.Sprintf("I've submitted my information. My name is %s and my email is %s.", fields.Name, fields.Email)
		c.socket.Send(c.conversationID, followUp)
	}
}

// EndConversation closes the session over REST. The widget keeps a fresh
// session per page load, so this is a courtesy call on teardown.
func (c *Controller) EndConversation() {
	c.mu.Lock()
	conversationID := c.conversationID
	c.conversationID = ""
	c.mu.Unlock()

	if conversationID == "" {
		return
	}
	if _, err := c.api.EndConversation(context.Background(), conversationID); err != nil {
		log.Printf("widget: ending conversation failed: %v", err)
	}
}

func matchesLeadTrigger(content string) bool {
	lowered := strings.ToLower(content)
	for _, trigger := range leadTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}
