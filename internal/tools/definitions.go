// Package tools declares the functions the assistant model may call, parses
// their arguments and executes them in-process or against the tool endpoints.
package tools

import "github.com/wolfman30/tradeezy-assistant/internal/llm"

// Tool names exactly as declared to the model.
const (
	GetBusinessServices = "getBusinessServices"
	CheckSlot           = "checkSlot"
	BookSlot            = "bookSlot"
	CreateOrUpdateUser  = "create_or_update_user"
)

// Known reports whether name is one of the declared tools.
func Known(name string) bool {
	switch name {
	case GetBusinessServices, CheckSlot, BookSlot, CreateOrUpdateUser:
		return true
	}
	return false
}

var (
	serviceNameProp = llm.Schema{Type: llm.TypeString, Description: "Service name as the customer said it, e.g. \"deep tissue massage\"."}
	startProp       = llm.Schema{Type: llm.TypeString, Description: "Requested start as ISO-8601, e.g. 2026-03-10T10:00:00. Local business time when no offset is given."}
	durationProp    = llm.Schema{Type: llm.TypeInteger, Description: "Appointment length in minutes."}
	businessProp    = llm.Schema{Type: llm.TypeString, Description: "Business identifier."}
)

// Definitions returns the tool catalog sent with every completion request.
func Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        GetBusinessServices,
			Description: "List the services the business offers. Optionally restrict the returned fields or filter by a service name.",
			Parameters: llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]llm.Schema{
					"fields": {
						Type:        llm.TypeArray,
						Description: "Attributes to return.",
						Items:       &llm.Schema{Type: llm.TypeString, Enum: []string{"name", "description", "duration_minutes", "price", "service_id"}},
					},
					"service_name": serviceNameProp,
				},
			},
		},
		{
			Name:        CheckSlot,
			Description: "Check whether a service can be booked at a specific start time.",
			Parameters: llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]llm.Schema{
					"service_name":      serviceNameProp,
					"preferredDateTime": startProp,
					"durationMinutes":   durationProp,
					"business_id":       businessProp,
				},
				Required: []string{"service_name", "preferredDateTime"},
			},
		},
		{
			Name:        BookSlot,
			Description: "Book a slot that checkSlot reported as available. Requires the customer's name, phone number and email.",
			Parameters: llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]llm.Schema{
					"service_name":      serviceNameProp,
					"preferredDateTime": startProp,
					"durationMinutes":   durationProp,
					"business_id":       businessProp,
					"clientName":        {Type: llm.TypeString, Description: "Customer's full name."},
					"phone_number":      {Type: llm.TypeString, Description: "Customer's phone number."},
					"email":             {Type: llm.TypeString, Description: "Customer's email address."},
				},
				Required: []string{"service_name", "preferredDateTime", "clientName"},
			},
		},
		{
			Name:        CreateOrUpdateUser,
			Description: "Save the customer's contact details. Only include the fields the customer provided.",
			Parameters: llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]llm.Schema{
					"name":         {Type: llm.TypeString, Description: "Customer's full name."},
					"phone_number": {Type: llm.TypeString, Description: "Customer's phone number."},
					"email":        {Type: llm.TypeString, Description: "Customer's email address."},
				},
			},
		},
	}
}
