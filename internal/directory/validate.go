package directory

import (
	"strings"

	"dappdir/internal/types"

	"github.com/asaskevich/govalidator"
)

const (
	MsgNameRequired        = "Name is required"
	MsgDescriptionRequired = "Description is required"
	MsgLogoInvalid         = "Valid logo URL is required"
	MsgWebsiteInvalid      = "Valid website URL is required"
	MsgTagsRequired        = "At least one tag is required"
	MsgChainsRequired      = "At least one chain is required"
	MsgCreatedAtInvalid    = "createdAt must be an ISO-8601 timestamp"
)

// Validate checks a candidate record and returns every failing rule, in a fixed order.
// A nil result means the input is valid.
func Validate(in types.RecordInput) []string {
	var errs []string
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, MsgNameRequired)
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, MsgDescriptionRequired)
	}
	if !isAbsoluteURL(in.Logo) {
		errs = append(errs, MsgLogoInvalid)
	}
	if !isAbsoluteURL(in.Website) {
		errs = append(errs, MsgWebsiteInvalid)
	}
	if len(in.Tags) == 0 {
		errs = append(errs, MsgTagsRequired)
	}
	if len(in.Chains) == 0 {
		errs = append(errs, MsgChainsRequired)
	}
	if c := strings.TrimSpace(in.CreatedAt); c != "" {
		if _, ok := types.ParseInputTimestamp(c); !ok {
			errs = append(errs, MsgCreatedAtInvalid)
		}
	}
	return errs
}

func isAbsoluteURL(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && govalidator.IsRequestURL(s)
}
