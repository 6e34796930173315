package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"clai-chat/widget"
)

// terminalHeader prints the chat title and forwards the close intent.
type terminalHeader struct {
	onClose func()
}

func (h *terminalHeader) SetTitle(title string) {
	fmt.Printf("=== %s ===\n", title)
}

func (h *terminalHeader) OnClose(fn func()) { h.onClose = fn }

type terminalInput struct {
	onSubmit func(string)
}

func (i *terminalInput) Focus()                        {}
func (i *terminalInput) OnSubmit(fn func(text string)) { i.onSubmit = fn }

type terminalMessages struct{}

func (terminalMessages) Append(sender, content string) {
	fmt.Printf("[%s] %s\n", sender, content)
}

func (terminalMessages) ShowTyping() {
	fmt.Println("... bot is typing")
}

func (terminalMessages) HideTyping() {}

type terminalLeadForm struct {
	onSubmit func(widget.LeadFields)
}

func (f *terminalLeadForm) Show(fields []string) {
	fmt.Printf("-- Share your details (%s): /lead <name> <email>\n", strings.Join(fields, ", "))
}

func (f *terminalLeadForm) Hide() {}

func (f *terminalLeadForm) OnSubmit(fn func(fields widget.LeadFields)) { f.onSubmit = fn }

func (f *terminalLeadForm) ShowFieldError(field, message string) {
	fmt.Printf("-- %s: %s\n", field, message)
}

type terminalSurface struct {
	header   *terminalHeader
	input    *terminalInput
	messages terminalMessages
	leadForm *terminalLeadForm
}

func (s *terminalSurface) Header() widget.Header           { return s.header }
func (s *terminalSurface) Input() widget.Input             { return s.input }
func (s *terminalSurface) MessageList() widget.MessageList { return s.messages }
func (s *terminalSurface) LeadForm() widget.LeadForm       { return s.leadForm }
func (s *terminalSurface) SetOpen(open bool)               {}

func main() {
	apiURL := flag.String("api", "http://localhost:82/api/v1", "REST base URL")
	wsURL := flag.String("ws", "ws://localhost:83/api/ws/v1/ws", "websocket URL")
	chatbotID := flag.String("chatbot", "", "chatbot id (required)")
	pageURL := flag.String("page", "", "host page URL for campaign attribution")
	referrer := flag.String("referrer", "", "host page referrer")
	flag.Parse()

	if *chatbotID == "" {
		log.Fatal("missing -chatbot")
	}

	storage, err := widget.NewFileStorage()
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	api := widget.NewAPIClient(*apiURL)
	config := widget.Config{
		ChatbotID: *chatbotID,
		APIURL:    *apiURL,
		SocketURL: *wsURL,
		PageURL:   *pageURL,
		Referrer:  *referrer,
	}

	if remote, err := api.WidgetConfig(context.Background(), *chatbotID); err == nil {
		config.OrganizationID = remote.OrganizationID
		config.Name = remote.Name
		config.WelcomeMessage = remote.WelcomeMessage
		if len(remote.LeadCaptureFields) > 0 {
			config.LeadCapture = &widget.LeadCaptureConfig{Fields: remote.LeadCaptureFields}
		}
	} else {
		log.Printf("widget config unavailable, continuing with defaults: %v", err)
	}

	socket := widget.NewSocket(*wsURL)
	controller := widget.NewController(config, storage, api, socket)

	surface := &terminalSurface{
		header:   &terminalHeader{},
		input:    &terminalInput{},
		leadForm: &terminalLeadForm{},
	}
	controller.Initialize(surface)
	controller.ToggleOpen()

	fmt.Println("Type a message, /lead <name> <email> to share contact details, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			controller.EndConversation()
			socket.Close()
			return
		case strings.HasPrefix(line, "/lead "):
			parts := strings.Fields(strings.TrimPrefix(line, "/lead "))
			if len(parts) < 2 {
				fmt.Println("-- usage: /lead <name> <email>")
				continue
			}
			fields := widget.LeadFields{
				Name:  strings.Join(parts[:len(parts)-1], " "),
				Email: parts[len(parts)-1],
			}
			if surface.leadForm.onSubmit != nil {
				surface.leadForm.onSubmit(fields)
			}
		default:
			if surface.input.onSubmit != nil {
				surface.input.onSubmit(line)
			}
		}
	}
}
