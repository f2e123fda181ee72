package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_Check(t *testing.T) {
	tests := []struct {
		name    string
		cred    Credential
		wantErr bool
	}{
		{name: "github ok", cred: Credential{Provider: ProviderGitHub, Token: "ghp_x"}},
		{name: "github blank token", cred: Credential{Provider: ProviderGitHub, Token: "  "}, wantErr: true},
		{name: "servicenow ok", cred: Credential{Provider: ProviderServiceNow, InstanceURL: "https://dev1.service-now.com", Username: "admin", Password: "pw"}},
		{name: "servicenow missing password", cred: Credential{Provider: ProviderServiceNow, InstanceURL: "https://dev1.service-now.com", Username: "admin"}, wantErr: true},
		{name: "servicenow relative url", cred: Credential{Provider: ProviderServiceNow, InstanceURL: "dev1.service-now.com", Username: "a", Password: "b"}, wantErr: true},
		{name: "unknown provider", cred: Credential{Provider: "jira", Token: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cred.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredential_MarshalRoundTrip(t *testing.T) {
	in := &Credential{Provider: ProviderServiceNow, InstanceURL: "https://x.service-now.com", Username: "u", Password: "p"}
	b, err := in.Marshal()
	require.NoError(t, err)

	out, err := UnmarshalCredential(ProviderServiceNow, b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = UnmarshalCredential(ProviderGitHub, []byte("{oops"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "oops")
}

func TestCredential_FormattingHidesSecrets(t *testing.T) {
	c := Credential{Provider: ProviderGitHub, Token: "ghp_supersecret"}
	for _, s := range []string{fmt.Sprint(c), fmt.Sprintf("%v", &c), fmt.Sprintf("%+v", c), fmt.Sprintf("%#v", c)} {
		assert.NotContains(t, s, "ghp_supersecret")
	}
}

func TestSecretRecord_LiveAndMetadata(t *testing.T) {
	r := &SecretRecord{ID: "1", Payload: []byte("ct")}
	assert.True(t, r.Live())

	m := r.Metadata()
	assert.Nil(t, m.Payload)
	assert.Equal(t, []byte("ct"), r.Payload, "original untouched")
}
