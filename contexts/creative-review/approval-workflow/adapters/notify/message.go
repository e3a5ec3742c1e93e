package notify

import (
	"fmt"
	"strings"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
)

func subjectFor(event entities.WorkflowEvent) string {
	name := strings.TrimSpace(event.OfferName)
	if name == "" {
		name = event.OfferID
	}
	return fmt.Sprintf("[creative review] %s: %s %s", name, event.ActorRole, verbFor(event.Operation))
}

func bodyFor(event entities.WorkflowEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", event.RequestID)
	fmt.Fprintf(&b, "Offer: %s (%s)\n", event.OfferName, event.OfferID)
	fmt.Fprintf(&b, "Advertiser: %s (%s)\n", event.AdvertiserName, event.AdvertiserID)
	fmt.Fprintf(&b, "Publisher: %s\n", event.PublisherID)
	fmt.Fprintf(&b, "Change: %s -> %s\n", event.From, event.To)
	fmt.Fprintf(&b, "By: %s (%s)\n", event.ActorID, event.ActorRole)
	if reason := strings.TrimSpace(event.Reason); reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", reason)
	}
	fmt.Fprintf(&b, "At: %s\n", event.OccurredAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	return b.String()
}

func verbFor(op entities.Operation) string {
	switch op {
	case entities.OperationApprove:
		return "approved"
	case entities.OperationReject:
		return "rejected"
	case entities.OperationForward:
		return "forwarded"
	case entities.OperationReturn:
		return "returned"
	default:
		return string(op)
	}
}
