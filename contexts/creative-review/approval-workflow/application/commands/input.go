package commands

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

const MaxReasonLength = 5000

// normalizeReason strips markup and enforces the length bound on the text
// that remains.
func normalizeReason(sanitizer ports.CommentSanitizer, raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", nil
	}
	if sanitizer != nil {
		cleaned, err := sanitizer.Sanitize(text)
		if err != nil {
			return "", fmt.Errorf("%w: reason could not be parsed", domainerrors.ErrValidation)
		}
		text = strings.TrimSpace(cleaned)
	}
	if utf8.RuneCountInString(text) > MaxReasonLength {
		return "", fmt.Errorf("%w: reason exceeds %d characters", domainerrors.ErrValidation, MaxReasonLength)
	}
	return text, nil
}

func validateTransitionInput(cmd TransitionCommand) (entities.Operation, entities.ActorRole, error) {
	if strings.TrimSpace(cmd.RequestID) == "" {
		return "", "", fmt.Errorf("%w: request id is required", domainerrors.ErrValidation)
	}
	if strings.TrimSpace(cmd.ActorID) == "" {
		return "", "", fmt.Errorf("%w: actor id is required", domainerrors.ErrValidation)
	}
	op, ok := entities.ParseOperation(strings.TrimSpace(string(cmd.Operation)))
	if !ok {
		return "", "", fmt.Errorf("%w: unknown operation %q", domainerrors.ErrValidation, cmd.Operation)
	}
	role, ok := entities.ParseActorRole(strings.ToLower(strings.TrimSpace(string(cmd.ActorRole))))
	if !ok {
		return "", "", fmt.Errorf("%w: unknown actor role %q", domainerrors.ErrValidation, cmd.ActorRole)
	}
	return op, role, nil
}
