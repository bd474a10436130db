package formcheck

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/domain"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist/file"
	"github.com/adonnan/form-blocker/internal/blocker/repos/settings"
)

type memStore struct{ m map[string]string }

func (s *memStore) Get(key string) (string, error) { return s.m[key], nil }
func (s *memStore) Set(key, value string) error    { s.m[key] = value; return nil }

func newTestService(t *testing.T) (*Service, *settings.Service) {
	t.Helper()
	store := file.New(filepath.Join(t.TempDir(), "blocklist.json"), log.NewNoopLogger())
	repo := blocklist.NewRepository(store, blocklist.NewTTLCache(time.Hour), log.NewNoopLogger())
	require.NoError(t, repo.Replace(domain.Blocklist{
		Domains: []string{"spam.example"},
		Emails:  []string{"bad@good.example"},
	}))

	settingsSvc := settings.New(&memStore{m: make(map[string]string)})
	return New(repo, settingsSvc), settingsSvc
}

func TestValidateForm_CleanSubmission(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.ValidateForm([]domain.Field{
		{ID: "1", Kind: domain.FieldEmail, Value: "ok@good.example"},
		{ID: "2", Kind: domain.FieldText, Value: "hello"},
	})

	require.True(t, result.Valid)
	require.Empty(t, result.Failures)
}

func TestValidateForm_BlockedAddressGetsEmailMessage(t *testing.T) {
	svc, settingsSvc := newTestService(t)
	require.NoError(t, settingsSvc.SetMessages("email nope", "domain nope"))

	result := svc.ValidateForm([]domain.Field{
		{ID: "3", Kind: domain.FieldEmail, Value: "bad@good.example"},
	})

	require.False(t, result.Valid)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "3", result.Failures[0].FieldID)
	require.Equal(t, domain.ReasonEmail, result.Failures[0].Reason)
	require.Equal(t, "email nope", result.Failures[0].Message)
}

func TestValidateForm_BlockedDomainGetsDomainMessage(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.ValidateForm([]domain.Field{
		{ID: "3", Kind: domain.FieldEmail, Value: "anyone@spam.example"},
	})

	require.False(t, result.Valid)
	require.Len(t, result.Failures, 1)
	require.Equal(t, domain.ReasonDomain, result.Failures[0].Reason)
	require.Equal(t, settings.DefaultBlockedDomainMessage, result.Failures[0].Message)
}

func TestValidateForm_ChecksEveryEmailFieldIndependently(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.ValidateForm([]domain.Field{
		{ID: "1", Kind: domain.FieldEmail, Value: "bad@good.example"},
		{ID: "2", Kind: domain.FieldEmail, Value: "ok@good.example"},
		{ID: "3", Kind: domain.FieldEmail, Value: "other@spam.example"},
	})

	require.False(t, result.Valid)
	require.Len(t, result.Failures, 2)
	require.Equal(t, "1", result.Failures[0].FieldID)
	require.Equal(t, "3", result.Failures[1].FieldID)
}

func TestValidateForm_SkipsEmptyAndInvalidValues(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.ValidateForm([]domain.Field{
		{ID: "1", Kind: domain.FieldEmail, Value: ""},
		{ID: "2", Kind: domain.FieldEmail, Value: "   "},
		{ID: "3", Kind: domain.FieldEmail, Value: "not-an-email"},
	})

	require.True(t, result.Valid)
}

func TestValidateForm_IgnoresNonEmailFields(t *testing.T) {
	svc, _ := newTestService(t)

	// A blocked address in a non-email field is not the blocker's
	// business.
	result := svc.ValidateForm([]domain.Field{
		{ID: "1", Kind: domain.FieldText, Value: "bad@good.example"},
		{ID: "2", Kind: domain.FieldOther, Value: "anyone@spam.example"},
	})

	require.True(t, result.Valid)
}
