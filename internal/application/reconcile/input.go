package reconcile

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultFetchTimeout bounds the legacy fetch when RunInput.Timeout is zero
const DefaultFetchTimeout = 30 * time.Second

// RunInput is everything one reconciliation run needs from its caller
type RunInput struct {
	CompanyID             int64            `json:"company_id"`
	ActorUserID           int64            `json:"actor_user_id"`
	BaseURL               string           `json:"base_url"`
	EndpointPath          string           `json:"endpoint_path"`
	LegacyScopeID         string           `json:"legacy_scope_id,omitempty"`
	BearerToken           string           `json:"-"`
	Timeout               time.Duration    `json:"timeout,omitempty"`
	DryRun                bool             `json:"dry_run"`
	TargetLegacyRecordIDs []string         `json:"target_legacy_record_ids,omitempty"`
	Overrides             []ManualOverride `json:"overrides,omitempty"`
}

// Validate checks the input before any fetch happens
func (in RunInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CompanyID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.ActorUserID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.BaseURL, validation.Required, is.URL),
		validation.Field(&in.EndpointPath, validation.Required),
		validation.Field(&in.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&in.TargetLegacyRecordIDs, validation.Each(validation.Required)),
		validation.Field(&in.Overrides),
	)
}

func (in RunInput) withDefaults() RunInput {
	if in.Timeout == 0 {
		in.Timeout = DefaultFetchTimeout
	}
	in.BaseURL = strings.TrimRight(strings.TrimSpace(in.BaseURL), "/")
	in.EndpointPath = strings.TrimSpace(in.EndpointPath)
	if in.EndpointPath != "" && !strings.HasPrefix(in.EndpointPath, "/") {
		in.EndpointPath = "/" + in.EndpointPath
	}
	return in
}
