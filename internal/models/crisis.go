package models

import "time"

type ResourceType string

const (
	ResourceHotline ResourceType = "hotline"
	ResourceText    ResourceType = "text"
	ResourceChat    ResourceType = "chat"
	ResourceWebsite ResourceType = "website"
)

// ContactMethod is how the user wants to reach a resource.
type ContactMethod string

const (
	ContactPhone   ContactMethod = "phone"
	ContactText    ContactMethod = "text"
	ContactChat    ContactMethod = "chat"
	ContactWebsite ContactMethod = "website"
)

func (m ContactMethod) Valid() bool {
	switch m {
	case ContactPhone, ContactText, ContactChat, ContactWebsite:
		return true
	}
	return false
}

// RegionGlobal is used for resources reachable from anywhere and for
// countries missing from the region table.
const RegionGlobal = "global"

// CrisisResource is a seeded support contact. At least one contact field is set.
type CrisisResource struct {
	ID              string       `json:"id" yaml:"id"`
	Name            string       `json:"name" yaml:"name"`
	Type            ResourceType `json:"type" yaml:"type"`
	Phone           string       `json:"phone,omitempty" yaml:"phone"`
	TextNumber      string       `json:"text_number,omitempty" yaml:"text_number"`
	ChatURL         string       `json:"chat_url,omitempty" yaml:"chat_url"`
	Website         string       `json:"website,omitempty" yaml:"website"`
	Region          string       `json:"region" yaml:"region"`
	Availability    string       `json:"availability" yaml:"availability"`
	Specializations []string     `json:"specializations,omitempty" yaml:"specializations"`
	Languages       []string     `json:"languages,omitempty" yaml:"languages"`
	LastVerified    time.Time    `json:"last_verified" yaml:"last_verified"`
}

// ContactFor returns the contact field used by the given method, or "".
func (r CrisisResource) ContactFor(m ContactMethod) string {
	switch m {
	case ContactPhone:
		return r.Phone
	case ContactText:
		return r.TextNumber
	case ContactChat:
		return r.ChatURL
	case ContactWebsite:
		return r.Website
	}
	return ""
}

// AlwaysAvailable reports a 24/7 resource.
func (r CrisisResource) AlwaysAvailable() bool {
	return r.Availability == "24/7"
}

// Location is a coarse, cacheable position.
type Location struct {
	Country   string    `json:"country"`
	Region    string    `json:"region"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type EmergencyBundle struct {
	EmergencyNumber string           `json:"emergency_number"`
	CrisisHotlines  []CrisisResource `json:"crisis_hotlines"`
	TextSupport     []CrisisResource `json:"text_support"`
}

type ContactResult struct {
	Success     bool   `json:"success"`
	URI         string `json:"uri,omitempty"`
	RetryPrompt string `json:"retry_prompt,omitempty"`
}

type StaleResource struct {
	Resource     CrisisResource `json:"resource"`
	LastVerified time.Time      `json:"last_verified"`
	Age          time.Duration  `json:"age"`
}
