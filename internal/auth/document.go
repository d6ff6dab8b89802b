package auth

import "opdsapi/internal/config"

const MediaTypeAuthentication = "application/opds-authentication+json"

// Document is the OPDS authentication document. Clients log in against
// archive.org directly; this service only advertises where.
type Document struct {
	Title          string   `json:"title"`
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	Authentication []Method `json:"authentication"`
	Links          []Link   `json:"links"`
}

type Method struct {
	Type   string            `json:"type"`
	Labels map[string]string `json:"labels"`
	Links  []Link            `json:"links"`
}

type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

func NewDocument(links config.LinksConfig) Document {
	return Document{
		Title:       "Log in",
		ID:          "/authentication_document",
		Description: "Log in to the Internet Archive to continue.",
		Authentication: []Method{{
			Type: "http://opds-spec.org/auth/oauth/password",
			Labels: map[string]string{
				"login":    "Username / Email address",
				"password": "Password",
			},
			Links: []Link{
				{Rel: "authenticate", Href: links.OAuth, Type: "application/json"},
				{Rel: "refresh", Href: links.OAuth, Type: "application/json"},
			},
		}},
		Links: []Link{
			{Rel: "logo", Href: links.Logo, Type: "image/jpeg"},
			{Rel: "profile", Href: links.Profile, Type: "application/opds-profile+json"},
			{Rel: "register", Href: links.Register, Type: "text/html"},
			{Rel: "help", Href: links.Help},
			{Rel: "about", Href: links.About, Type: "text/html"},
		},
	}
}
