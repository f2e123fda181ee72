package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Credential is the plaintext material a user submits for a provider.
// GitHub uses Token; ServiceNow uses InstanceURL, Username and Password.
// Values of this type must never be logged or returned to callers.
type Credential struct {
	Provider    Provider `json:"-"`
	Token       string   `json:"token,omitempty"`
	InstanceURL string   `json:"instance_url,omitempty"`
	Username    string   `json:"username,omitempty"`
	Password    string   `json:"password,omitempty"`
}

// Check verifies the fields required by the provider are present.
func (c *Credential) Check() error {
	switch c.Provider {
	case ProviderGitHub:
		if strings.TrimSpace(c.Token) == "" {
			return fmt.Errorf("github credential requires a token")
		}
	case ProviderServiceNow:
		if c.InstanceURL == "" || c.Username == "" || c.Password == "" {
			return fmt.Errorf("servicenow credential requires instance_url, username and password")
		}
		u, err := url.Parse(c.InstanceURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("servicenow instance_url must be an absolute http(s) URL")
		}
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	return nil
}

// Marshal encodes the credential as the plaintext handed to the secret store.
func (c *Credential) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCredential decodes plaintext produced by Marshal.
func UnmarshalCredential(provider Provider, plaintext []byte) (*Credential, error) {
	c := &Credential{}
	if err := json.Unmarshal(plaintext, c); err != nil {
		return nil, fmt.Errorf("decode credential: malformed payload")
	}
	c.Provider = provider
	return c, nil
}

// String keeps credentials out of formatted output.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{provider=%s}", c.Provider)
}

// GoString mirrors String for %#v.
func (c Credential) GoString() string {
	return c.String()
}
