package widget

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clai-chat/internal/dto"
)

type recordedMessage struct {
	sender  string
	content string
}

type fakeHeader struct {
	title   string
	onClose func()
}

func (h *fakeHeader) SetTitle(title string) { h.title = title }
func (h *fakeHeader) OnClose(fn func())     { h.onClose = fn }

type fakeInput struct {
	focusCount int
	onSubmit   func(string)
}

func (i *fakeInput) Focus()                        { i.focusCount++ }
func (i *fakeInput) OnSubmit(fn func(text string)) { i.onSubmit = fn }

type fakeMessageList struct {
	messages  []recordedMessage
	showCalls int
	hideCalls int
}

func (l *fakeMessageList) Append(sender, content string) {
	l.messages = append(l.messages, recordedMessage{sender: sender, content: content})
}
func (l *fakeMessageList) ShowTyping() { l.showCalls++ }
func (l *fakeMessageList) HideTyping() { l.hideCalls++ }

func (l *fakeMessageList) humanMessages() []string {
	var out []string
	for _, m := range l.messages {
		if m.sender == "human" {
			out = append(out, m.content)
		}
	}
	return out
}

func (l *fakeMessageList) lastMessage() recordedMessage {
	if len(l.messages) == 0 {
		return recordedMessage{}
	}
	return l.messages[len(l.messages)-1]
}

type fakeLeadForm struct {
	shown       bool
	shownFields []string
	fieldErrors map[string]string
	onSubmit    func(LeadFields)
}

func (f *fakeLeadForm) Show(fields []string) {
	f.shown = true
	f.shownFields = fields
}
func (f *fakeLeadForm) Hide()                        { f.shown = false }
func (f *fakeLeadForm) OnSubmit(fn func(LeadFields)) { f.onSubmit = fn }
func (f *fakeLeadForm) ShowFieldError(field, message string) {
	if f.fieldErrors == nil {
		f.fieldErrors = map[string]string{}
	}
	f.fieldErrors[field] = message
}

type fakeSurface struct {
	header      *fakeHeader
	input       *fakeInput
	messageList *fakeMessageList
	leadForm    *fakeLeadForm
	open        bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		header:      &fakeHeader{},
		input:       &fakeInput{},
		messageList: &fakeMessageList{},
		leadForm:    &fakeLeadForm{},
	}
}

func (s *fakeSurface) Header() Header           { return s.header }
func (s *fakeSurface) Input() Input             { return s.input }
func (s *fakeSurface) MessageList() MessageList { return s.messageList }
func (s *fakeSurface) LeadForm() LeadForm       { return s.leadForm }
func (s *fakeSurface) SetOpen(open bool)        { s.open = open }

type sentFrame struct {
	conversationID string
	content        string
}

type fakeSocket struct {
	connectCount int
	joins        []string
	sends        []sentFrame
	onMessage    []func(sender, content string)
	onTyping     []func(status string)
}

func (s *fakeSocket) Connect()                   { s.connectCount++ }
func (s *fakeSocket) Join(conversationID string) { s.joins = append(s.joins, conversationID) }
func (s *fakeSocket) Send(conversationID, content string) {
	s.sends = append(s.sends, sentFrame{conversationID: conversationID, content: content})
}
func (s *fakeSocket) OnMessage(fn func(sender, content string)) {
	s.onMessage = append(s.onMessage, fn)
}
func (s *fakeSocket) OnTyping(fn func(status string)) { s.onTyping = append(s.onTyping, fn) }

func (s *fakeSocket) emitMessage(sender, content string) {
	for _, fn := range s.onMessage {
		fn(sender, content)
	}
}

func (s *fakeSocket) emitTyping(status string) {
	for _, fn := range s.onTyping {
		fn(status)
	}
}

// backendStub counts conversation starts and lead submissions and lets tests
// force failures per endpoint.
type backendStub struct {
	startCalls   int
	leadCalls    int
	failStart    bool
	failLead     bool
	lastStartReq dto.StartConversationRequest
}

func (b *backendStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/public/conversations", func(w http.ResponseWriter, r *http.Request) {
		b.startCalls++
		if err := json.NewDecoder(r.Body).Decode(&b.lastStartReq); err != nil {
			t.Errorf("decoding start request failed: %v", err)
		}
		if b.failStart {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto.StartConversationResponse{ConversationID: "conv-1", Status: "active"})
	})
	mux.HandleFunc("/public/leads", func(w http.ResponseWriter, r *http.Request) {
		b.leadCalls++
		if b.failLead {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto.CreateLeadResponse{LeadID: "lead-1", Status: "new"})
	})
	return mux
}

func newTestController(t *testing.T, backend *backendStub) (*Controller, *fakeSurface, *fakeSocket, *MemoryStorage) {
	t.Helper()

	server := httptest.NewServer(backend.handler(t))
	t.Cleanup(server.Close)

	storage := NewMemoryStorage()
	socket := &fakeSocket{}
	c := NewController(Config{
		ChatbotID:      "1",
		OrganizationID: "org-1",
		APIURL:         server.URL,
		Name:           "Bot",
		PageURL:        "https://example.com/pricing?utm_source=newsletter&utm_medium=email&utm_campaign=spring",
		Referrer:       "https://search.example.com",
	}, storage, NewAPIClient(server.URL), socket)

	surface := newFakeSurface()
	c.Initialize(surface)
	return c, surface, socket, storage
}

func TestInitializeRendersWelcome(t *testing.T) {
	_, surface, socket, _ := newTestController(t, &backendStub{})

	if surface.header.title != "Bot" {
		t.Errorf("expected header title Bot, got %q", surface.header.title)
	}
	if len(surface.messageList.messages) != 1 {
		t.Fatalf("expected exactly the welcome message, got %d messages", len(surface.messageList.messages))
	}
	welcome := surface.messageList.messages[0]
	if welcome.sender != "bot" || welcome.content != defaultWelcomeMessage {
		t.Errorf("unexpected welcome message: %+v", welcome)
	}
	if socket.connectCount != 1 {
		t.Errorf("expected one connect on initialize, got %d", socket.connectCount)
	}
}

func TestInitializeWithoutSurfaceIsSilent(t *testing.T) {
	socket := &fakeSocket{}
	c := NewController(Config{ChatbotID: "1"}, NewMemoryStorage(), NewAPIClient("http://127.0.0.1:1"), socket)

	c.Initialize(nil)

	// No subscriptions, no connect, and later calls stay no-ops.
	if socket.connectCount != 0 {
		t.Errorf("expected no connect without a surface, got %d", socket.connectCount)
	}
	c.SubmitUserMessage("hello")
	c.ToggleOpen()
}

func TestSubmitUserMessageAppendsInOrder(t *testing.T) {
	c, surface, _, _ := newTestController(t, &backendStub{})

	c.SubmitUserMessage("first")
	c.SubmitUserMessage("second")
	c.SubmitUserMessage("third")

	got := surface.messageList.humanMessages()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d human messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSubmitUserMessageIgnoresWhitespace(t *testing.T) {
	c, surface, _, _ := newTestController(t, &backendStub{})
	before := len(surface.messageList.messages)

	c.SubmitUserMessage("")
	c.SubmitUserMessage("   \t\n")

	if len(surface.messageList.messages) != before {
		t.Errorf("expected message list unchanged, grew to %d", len(surface.messageList.messages))
	}
}

func TestBootstrapRunsExactlyOnce(t *testing.T) {
	backend := &backendStub{}
	c, _, socket, storage := newTestController(t, backend)

	c.SubmitUserMessage("hi")
	c.SubmitUserMessage("are you there?")

	if backend.startCalls != 1 {
		t.Fatalf("expected one conversation start, got %d", backend.startCalls)
	}

	visitorID, err := storage.VisitorID()
	if err != nil {
		t.Fatalf("VisitorID failed: %v", err)
	}
	if backend.lastStartReq.ChatbotID != "1" {
		t.Errorf("expected chatbot_id 1, got %q", backend.lastStartReq.ChatbotID)
	}
	if backend.lastStartReq.VisitorID != visitorID {
		t.Errorf("expected visitor_id %q, got %q", visitorID, backend.lastStartReq.VisitorID)
	}
	if backend.lastStartReq.UTMSource != "newsletter" || backend.lastStartReq.UTMCampaign != "spring" {
		t.Errorf("expected campaign attribution, got %+v", backend.lastStartReq)
	}

	if len(socket.joins) != 1 || socket.joins[0] != "conv-1" {
		t.Fatalf("expected a single join for conv-1, got %v", socket.joins)
	}
	if len(socket.sends) != 2 {
		t.Fatalf("expected both messages relayed, got %v", socket.sends)
	}
	if socket.sends[0].content != "hi" || socket.sends[1].content != "are you there?" {
		t.Errorf("messages relayed out of order: %v", socket.sends)
	}

	saved, err := storage.Conversation()
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if saved != "conv-1" {
		t.Errorf("expected persisted conversation id conv-1, got %q", saved)
	}
}

func TestBootstrapFailureAppendsApology(t *testing.T) {
	backend := &backendStub{failStart: true}
	c, surface, socket, _ := newTestController(t, backend)

	c.SubmitUserMessage("hi")

	last := surface.messageList.lastMessage()
	if last.sender != "bot" || last.content != bootstrapApology {
		t.Errorf("expected apology bot message, got %+v", last)
	}
	if len(socket.joins) != 0 || len(socket.sends) != 0 {
		t.Errorf("expected no realtime traffic after failed bootstrap, got joins=%v sends=%v", socket.joins, socket.sends)
	}
	// The optimistic append stays even though the call failed.
	humans := surface.messageList.humanMessages()
	if len(humans) != 1 || humans[0] != "hi" {
		t.Errorf("expected the optimistic human message to remain, got %v", humans)
	}
}

func TestTypingIndicatorIdempotent(t *testing.T) {
	_, surface, socket, _ := newTestController(t, &backendStub{})

	socket.emitTyping("started")
	socket.emitTyping("started")
	if surface.messageList.showCalls != 1 {
		t.Errorf("expected one ShowTyping for repeated started events, got %d", surface.messageList.showCalls)
	}

	socket.emitTyping("stopped")
	socket.emitTyping("stopped")
	if surface.messageList.hideCalls != 1 {
		t.Errorf("expected one HideTyping for repeated stopped events, got %d", surface.messageList.hideCalls)
	}
}

func TestInboundBotMessageClearsTyping(t *testing.T) {
	_, surface, socket, _ := newTestController(t, &backendStub{})

	socket.emitTyping("started")
	socket.emitMessage("bot", "Happy to help!")

	if surface.messageList.hideCalls != 1 {
		t.Errorf("expected typing cleared by the bot message, hide calls=%d", surface.messageList.hideCalls)
	}
	last := surface.messageList.lastMessage()
	if last.sender != "bot" || last.content != "Happy to help!" {
		t.Errorf("unexpected last message: %+v", last)
	}
}

func TestInboundHumanEchoIgnored(t *testing.T) {
	c, surface, socket, _ := newTestController(t, &backendStub{})

	c.SubmitUserMessage("hi")
	before := len(surface.messageList.messages)

	socket.emitMessage("human", "hi")

	if len(surface.messageList.messages) != before {
		t.Errorf("expected the echoed human message to be dropped, list grew to %d", len(surface.messageList.messages))
	}
}

func TestLeadHeuristic(t *testing.T) {
	_, surface, socket, _ := newTestController(t, &backendStub{})

	socket.emitMessage("bot", "Thanks for chatting today.")
	if surface.leadForm.shown {
		t.Fatal("lead form must not activate without a trigger phrase")
	}

	socket.emitMessage("bot", "Sure! Could you Provide Your email address?")
	if !surface.leadForm.shown {
		t.Fatal("expected the lead form to activate on a trigger phrase")
	}
	if len(surface.leadForm.shownFields) != 2 || surface.leadForm.shownFields[0] != "name" {
		t.Errorf("expected default fields [name email], got %v", surface.leadForm.shownFields)
	}

	// A second trigger while the form is active does not re-show it.
	surface.leadForm.shown = false
	socket.emitMessage("bot", "Please share your contact information.")
	if surface.leadForm.shown {
		t.Error("lead form re-activated while already active")
	}
}

func TestSubmitLeadSuccess(t *testing.T) {
	backend := &backendStub{}
	c, surface, socket, _ := newTestController(t, backend)

	c.SubmitUserMessage("hi")
	socket.emitMessage("bot", "Could you provide your email address?")
	sendsBefore := len(socket.sends)

	c.SubmitLead(LeadFields{Name: "Jo Doe", Email: "jo@example.com"})

	if backend.leadCalls != 1 {
		t.Fatalf("expected one lead submission, got %d", backend.leadCalls)
	}
	if surface.leadForm.shown {
		t.Error("expected the lead form hidden after submission")
	}
	last := surface.messageList.lastMessage()
	if last.content != leadThankYou {
		t.Errorf("expected thank-you message, got %+v", last)
	}

	if len(socket.sends) != sendsBefore+1 {
		t.Fatalf("expected a synthesized follow-up, sends=%v", socket.sends)
	}
	followUp := socket.sends[len(socket.sends)-1].content
	if !strings.Contains(followUp, "Jo Doe") || !strings.Contains(followUp, "jo@example.com") {
		t.Errorf("follow-up does not restate the lead: %q", followUp)
	}
}

func TestSubmitLeadFailureRemovesFormWithoutRetry(t *testing.T) {
	backend := &backendStub{failLead: true}
	c, surface, socket, _ := newTestController(t, backend)

	socket.emitMessage("bot", "Could you provide your email address?")
	c.SubmitLead(LeadFields{Name: "Jo Doe", Email: "jo@example.com"})

	if backend.leadCalls != 1 {
		t.Fatalf("expected exactly one lead call, got %d", backend.leadCalls)
	}
	if surface.leadForm.shown {
		t.Error("expected the lead form removed even on failure")
	}
	last := surface.messageList.lastMessage()
	if last.sender != "bot" || last.content != leadApology {
		t.Errorf("expected apology bot message, got %+v", last)
	}
}

func TestSubmitLeadValidation(t *testing.T) {
	backend := &backendStub{}
	c, surface, socket, _ := newTestController(t, backend)

	socket.emitMessage("bot", "Could you provide your email address?")
	c.SubmitLead(LeadFields{Name: "Jo Doe"})

	if backend.leadCalls != 0 {
		t.Errorf("expected submission blocked on missing email, got %d calls", backend.leadCalls)
	}
	if surface.leadForm.fieldErrors["email"] == "" {
		t.Error("expected an inline error on the email field")
	}
	if !surface.leadForm.shown {
		t.Error("expected the form to stay active after a validation failure")
	}
}

func TestToggleOpen(t *testing.T) {
	c, surface, _, _ := newTestController(t, &backendStub{})

	c.ToggleOpen()
	if !surface.open {
		t.Error("expected widget open after first toggle")
	}
	c.ToggleOpen()
	if surface.open {
		t.Error("expected widget closed after second toggle")
	}
}
