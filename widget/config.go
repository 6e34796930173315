package widget

import "net/url"

// Config is passed by the embedding host. ChatbotID and APIURL are the only
// hard requirements; everything else has a sensible default or comes from the
// public widget config endpoint.
type Config struct {
	ChatbotID      string
	OrganizationID string
	APIURL         string
	SocketURL      string
	Name           string
	WelcomeMessage string
	LeadCapture    *LeadCaptureConfig

	// PageURL and Referrer describe the host page the widget is embedded
	// in; campaign attribution is extracted from them on bootstrap.
	PageURL  string
	Referrer string
}

type LeadCaptureConfig struct {
	Fields []string
}

// attribution carries the campaign parameters sent with conversation starts
// and lead submissions.
type attribution struct {
	Source   string
	Medium   string
	Campaign string
	Referrer string
}

func attributionFromPage(pageURL, referrer string) attribution {
	attr := attribution{Referrer: referrer}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return attr
	}

	query := parsed.Query()
	attr.Source = query.Get("utm_source")
	attr.Medium = query.Get("utm_medium")
	attr.Campaign = query.Get("utm_campaign")
	return attr
}
