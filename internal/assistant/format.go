package assistant

import (
	"fmt"
	"strings"

	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/internal/tools"
)

// Fixed replies.
const (
	fallbackReply    = "Sorry, I wasn't able to finish that request. Could you tell me again what you'd like to do?"
	emptyReply       = "Sorry, I didn't catch that. Could you rephrase?"
	noServicesReply  = "Sorry, I couldn't find any services for this business right now."
	alreadyBookedMsg = "this slot was already booked in this conversation; do not book it again"
)

// formatListing renders a catalog listing into the reply shown to the user.
// Only the requested fields appear, in catalog order.
func formatListing(l catalog.Listing) string {
	if len(l.Services) == 0 {
		return noServicesReply
	}
	var b strings.Builder
	if len(l.Services) == 1 {
		b.WriteString("Here's what I found:\n")
	} else {
		b.WriteString("Here are the services we offer:\n")
	}
	for _, svc := range l.Services {
		b.WriteString("- ")
		var parts []string
		if l.Has(catalog.FieldName) {
			b.WriteString(svc.Name)
		} else if l.Has(catalog.FieldServiceID) {
			b.WriteString(svc.ID)
		}
		if l.Has(catalog.FieldPrice) {
			parts = append(parts, formatPrice(svc.Price))
		}
		if l.Has(catalog.FieldDurationMinutes) && svc.DurationMinutes > 0 {
			parts = append(parts, fmt.Sprintf("%d minutes", svc.DurationMinutes))
		}
		if len(parts) > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(parts, ", "))
		}
		if l.Has(catalog.FieldDescription) && strings.TrimSpace(svc.Description) != "" {
			b.WriteString("\n  ")
			b.WriteString(strings.TrimSpace(svc.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString("Would you like to book one of these?")
	return b.String()
}

func formatPrice(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("$%d", int64(p))
	}
	return fmt.Sprintf("$%.2f", p)
}

// clarifyReply asks the user to pick from the offered services when a name
// did not match closely enough.
func clarifyReply(requested string, offered []string) string {
	if len(offered) == 0 {
		return fmt.Sprintf("Sorry, I couldn't find a service called %q.", requested)
	}
	return fmt.Sprintf("Sorry, I couldn't find a service called %q. We offer %s. Which one would you like?",
		requested, joinList(offered, "and"))
}

// ambiguousReply asks the user to choose between services that fit the
// requested name equally well.
func ambiguousReply(requested string, candidates []string) string {
	if len(candidates) < 2 {
		return clarifyReply(requested, candidates)
	}
	return fmt.Sprintf("We have more than one service matching %q: %s. Which one would you like?",
		requested, joinList(candidates, "or"))
}

// contactQuestion asks for exactly the contact fields still missing.
func contactQuestion(missing []string) string {
	return fmt.Sprintf("To book your appointment I still need your %s. Could you share %s?",
		joinList(missing, "and"), pronoun(len(missing)))
}

func pronoun(n int) string {
	if n == 1 {
		return "it"
	}
	return "them"
}

// apology is the reply when a tool call fails.
func apology(tool string) string {
	return fmt.Sprintf("Sorry, something went wrong while %s. Please try again in a moment.", action(tool))
}

func action(tool string) string {
	switch tool {
	case tools.GetBusinessServices:
		return "looking up our services"
	case tools.CheckSlot:
		return "checking that time"
	case tools.BookSlot:
		return "booking your appointment"
	case tools.CreateOrUpdateUser:
		return "saving your details"
	default:
		return "handling your request"
	}
}

func joinList(items []string, conj string) string {
	word := " " + conj + " "
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + word + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + word + items[len(items)-1]
	}
}
