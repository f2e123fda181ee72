// Package api declares the gRPC surface shared by the server and the CLI:
// method names, request and response messages and the JSON codec they
// travel with.
package api

import (
	"encoding/json"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xconnect.v1.XConnect"

// Method names.
const (
	MethodPing             = "Ping"
	MethodSubmitCredential = "SubmitCredential"
	MethodRevokeCredential = "RevokeCredential"
	MethodListIntegrations = "ListIntegrations"
	MethodValidateMapping  = "ValidateMapping"
	MethodSuggestMapping   = "SuggestMapping"
	MethodSaveMapping      = "SaveMapping"
	MethodListMappings     = "ListMappings"
	MethodListRepositories = "ListRepositories"
	MethodListTables       = "ListTables"
	MethodDescribeRepo     = "DescribeRepository"
	MethodListTableFields  = "ListTableFields"
	MethodUpsertRecord     = "UpsertRecord"
)

// FullMethod returns the /service/method path of name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// AccessTokenKey is the metadata key carrying the JWT access token.
const AccessTokenKey = common.AccessTokenHeaderName

// Codec marshals messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return "json" }

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// SubmitCredentialRequest carries credential material. It is consumed by
// the validator and never echoed back.
type SubmitCredentialRequest struct {
	Provider    models.Provider `json:"provider"`
	Token       string          `json:"token,omitempty"`
	InstanceURL string          `json:"instance_url,omitempty"`
	Username    string          `json:"username,omitempty"`
	Password    string          `json:"password,omitempty"`
}

// Credential converts the request into the domain credential.
func (r *SubmitCredentialRequest) Credential() *models.Credential {
	return &models.Credential{
		Provider:    r.Provider,
		Token:       r.Token,
		InstanceURL: r.InstanceURL,
		Username:    r.Username,
		Password:    r.Password,
	}
}

type SubmitCredentialResponse struct {
	Validation *models.ValidationResult `json:"validation"`
}

type RevokeCredentialRequest struct {
	Provider models.Provider `json:"provider"`
}

type RevokeCredentialResponse struct{}

type ListIntegrationsRequest struct{}

type ListIntegrationsResponse struct {
	Integrations []models.IntegrationStatus `json:"integrations"`
}

// ValidateMappingRequest names a stored mapping by MappingID or carries an
// unsaved one in Mapping.
type ValidateMappingRequest struct {
	MappingID string              `json:"mapping_id,omitempty"`
	Mapping   *models.MappingSpec `json:"mapping,omitempty"`
}

type ValidateMappingResponse struct {
	Report *models.MappingReport `json:"report"`
}

type SuggestMappingRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type SuggestMappingResponse struct {
	Mapping *models.MappingSpec `json:"mapping"`
}

type SaveMappingRequest struct {
	Mapping *models.MappingSpec `json:"mapping"`
}

type SaveMappingResponse struct {
	Mapping *models.MappingSpec `json:"mapping"`
}

type ListMappingsRequest struct{}

type ListMappingsResponse struct {
	Mappings []*models.MappingSpec `json:"mappings"`
}

// ListRepositoriesRequest asks for up to Limit repositories; zero selects
// the server default.
type ListRepositoriesRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListRepositoriesResponse struct {
	Repositories []models.Repo `json:"repositories"`
}

// ListTablesRequest asks for up to Limit tables whose name or label
// contains Query; an empty Query lists all of them.
type ListTablesRequest struct {
	Limit int    `json:"limit,omitempty"`
	Query string `json:"query,omitempty"`
}

type ListTablesResponse struct {
	Tables []models.Table `json:"tables"`
}

// DescribeRepositoryRequest names a repository as owner/name.
type DescribeRepositoryRequest struct {
	FullName string `json:"full_name"`
}

type DescribeRepositoryResponse struct {
	Fields []models.FieldDescriptor `json:"fields"`
}

type ListTableFieldsRequest struct {
	Table string `json:"table"`
}

type ListTableFieldsResponse struct {
	Fields []models.FieldDescriptor `json:"fields"`
}

type UpsertRecordRequest struct {
	Record *models.RecordUpsert `json:"record"`
}

type UpsertRecordResponse struct {
	Result *models.RecordResult `json:"result"`
}
