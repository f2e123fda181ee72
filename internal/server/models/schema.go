package models

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeReference FieldType = "reference"
	TypeUnknown   FieldType = "unknown"
)

// FieldDescriptor describes one field of a repository or a table.
type FieldDescriptor struct {
	Name         string    `json:"name"`
	DeclaredType FieldType `json:"declared_type"`
	Required     bool      `json:"required"`
}

// Repo is a repository visible to a code-hosting credential.
type Repo struct {
	FullName   string `json:"full_name"`
	Visibility string `json:"visibility"`
}

// Table is a table visible to a service-desk credential.
type Table struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// RecordAction says what an upsert did to the target record.
type RecordAction string

const (
	RecordCreated RecordAction = "created"
	RecordUpdated RecordAction = "updated"
)

// RecordUpsert writes field values into a service-desk table. An empty
// SysID creates a new record.
type RecordUpsert struct {
	Table string         `json:"table"`
	SysID string         `json:"sys_id,omitempty"`
	Data  map[string]any `json:"data"`
}

// RecordResult is the record as stored after an upsert.
type RecordResult struct {
	Table  string         `json:"table"`
	SysID  string         `json:"sys_id"`
	Action RecordAction   `json:"action"`
	Record map[string]any `json:"record"`
}
