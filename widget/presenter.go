package widget

// The presentation components are intent-emitting renderers. The controller
// drives them; they never talk to the network themselves.

type Header interface {
	SetTitle(title string)
	OnClose(fn func())
}

type Input interface {
	Focus()
	OnSubmit(fn func(text string))
}

type MessageList interface {
	Append(sender, content string)
	ShowTyping()
	HideTyping()
}

// LeadFields holds the values collected by the lead form. Name and email are
// required; the rest are optional.
type LeadFields struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
}

type LeadForm interface {
	Show(fields []string)
	Hide()
	OnSubmit(fn func(fields LeadFields))
	ShowFieldError(field, message string)
}

// Surface bundles the presentation components the controller renders into.
type Surface interface {
	Header() Header
	Input() Input
	MessageList() MessageList
	LeadForm() LeadForm
	SetOpen(open bool)
}
