// Package servicenow is a small ServiceNow Table API client.
package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/netx"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

const (
	maxLimit = 500
	// maxTableDepth bounds the super_class walk.
	maxTableDepth = 10
)

var (
	tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	sysIDPattern     = regexp.MustCompile(`^[0-9a-f]{32}$`)

	// searchPattern keeps encoded-query operators (^, =) out of LIKE terms.
	searchPattern = regexp.MustCompile(`^[A-Za-z0-9_ .-]{0,100}$`)
)

// Client calls the Table API of the instance named in each credential.
type Client struct {
	http *netx.Client
}

// NewClient returns a ServiceNow client.
func NewClient(hc *netx.Client) *Client {
	return &Client{http: hc}
}

func (c *Client) get(ctx context.Context, cred *models.Credential, table string, q url.Values, out any) error {
	return c.do(ctx, cred, http.MethodGet, table, q, nil, out)
}

func (c *Client) do(ctx context.Context, cred *models.Credential, method, path string, q url.Values, payload any, out any) error {
	base, err := url.Parse(strings.TrimRight(cred.InstanceURL, "/"))
	if err != nil || base.Host == "" {
		return fmt.Errorf("%w: invalid instance url", common.ErrorValidation)
	}
	base.Path += "/api/now/table/" + path
	base.RawQuery = q.Encode()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode servicenow payload: %v", common.ErrorValidation, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), body)
	if err != nil {
		return fmt.Errorf("build servicenow request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(cred.Username, cred.Password)
	return c.http.DoJSON(req, out)
}

// ListTables returns up to limit tables (sys_db_object rows) visible to
// the credential. A non-empty search keeps tables whose name or label
// contains it.
func (c *Client) ListTables(ctx context.Context, cred *models.Credential, limit int, search string) ([]models.Table, error) {
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	search = strings.TrimSpace(search)
	if !searchPattern.MatchString(search) {
		return nil, fmt.Errorf("%w: invalid table search", common.ErrorValidation)
	}
	q := url.Values{}
	if search != "" {
		q.Set("sysparm_query", "nameLIKE"+search+"^ORlabelLIKE"+search)
	}
	q.Set("sysparm_fields", "name,label")
	q.Set("sysparm_limit", strconv.Itoa(limit))

	var body struct {
		Result []models.Table `json:"result"`
	}
	if err := c.get(ctx, cred, "sys_db_object", q, &body); err != nil {
		return nil, fmt.Errorf("servicenow list tables: %w", err)
	}
	tables := body.Result[:0]
	for _, t := range body.Result {
		if t.Name != "" {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// ValidTableName reports whether name is safe to embed in an encoded query.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

type dictionaryRow struct {
	Name         string     `json:"name"`
	Element      string     `json:"element"`
	InternalType fieldValue `json:"internal_type"`
	Mandatory    fieldValue `json:"mandatory"`
}

// fieldValue accepts both a bare string and the {"value": ...} form the
// Table API uses for reference columns.
type fieldValue string

func (v *fieldValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = fieldValue(s)
		return nil
	}
	var ref struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &ref); err == nil {
		*v = fieldValue(ref.Value)
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*v = fieldValue(strconv.FormatBool(flag))
		return nil
	}
	*v = ""
	return nil
}

// GetTableFields describes the columns of table from sys_dictionary,
// including the ones it inherits through super_class. A column redefined
// by a child table wins over the parent's definition.
func (c *Client) GetTableFields(ctx context.Context, cred *models.Credential, table string) ([]models.FieldDescriptor, error) {
	table = strings.TrimSpace(table)
	if !ValidTableName(table) {
		return nil, fmt.Errorf("%w: invalid table name", common.ErrorValidation)
	}
	chain, err := c.tableChain(ctx, cred, table)
	if err != nil {
		return nil, fmt.Errorf("servicenow table hierarchy: %w", err)
	}
	depth := make(map[string]int, len(chain))
	for i, t := range chain {
		depth[t] = i
	}

	q := url.Values{}
	q.Set("sysparm_query", "nameIN"+strings.Join(chain, ",")+"^elementISNOTEMPTY")
	q.Set("sysparm_fields", "name,element,internal_type,mandatory")
	q.Set("sysparm_exclude_reference_link", "true")

	var body struct {
		Result []dictionaryRow `json:"result"`
	}
	if err := c.get(ctx, cred, "sys_dictionary", q, &body); err != nil {
		return nil, fmt.Errorf("servicenow table fields: %w", err)
	}

	type ranked struct {
		field models.FieldDescriptor
		depth int
	}
	var order []string
	best := make(map[string]ranked, len(body.Result))
	for _, r := range body.Result {
		name := strings.TrimSpace(r.Element)
		if name == "" {
			continue
		}
		d := depth[strings.TrimSpace(r.Name)]
		cur, seen := best[name]
		if seen && cur.depth <= d {
			continue
		}
		if !seen {
			order = append(order, name)
		}
		best[name] = ranked{
			field: models.FieldDescriptor{
				Name:         name,
				DeclaredType: mapInternalType(string(r.InternalType)),
				Required:     strings.EqualFold(string(r.Mandatory), "true"),
			},
			depth: d,
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return best[order[i]].depth < best[order[j]].depth })
	fields := make([]models.FieldDescriptor, 0, len(order))
	for _, name := range order {
		fields = append(fields, best[name].field)
	}
	return fields, nil
}

// tableChain returns table followed by its ancestors, nearest first.
func (c *Client) tableChain(ctx context.Context, cred *models.Credential, table string) ([]string, error) {
	chain := []string{table}
	seen := map[string]bool{table: true}
	for name := table; len(chain) < maxTableDepth; {
		q := url.Values{}
		q.Set("sysparm_query", "name="+name)
		q.Set("sysparm_fields", "name,super_class.name")
		q.Set("sysparm_limit", "1")

		var body struct {
			Result []struct {
				Parent string `json:"super_class.name"`
			} `json:"result"`
		}
		if err := c.get(ctx, cred, "sys_db_object", q, &body); err != nil {
			return nil, err
		}
		if len(body.Result) == 0 {
			break
		}
		parent := strings.TrimSpace(body.Result[0].Parent)
		if parent == "" || seen[parent] || !ValidTableName(parent) {
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		name = parent
	}
	return chain, nil
}

// UpsertRecord creates a record in rec.Table, or updates the one named by
// rec.SysID.
func (c *Client) UpsertRecord(ctx context.Context, cred *models.Credential, rec models.RecordUpsert) (*models.RecordResult, error) {
	table := strings.TrimSpace(rec.Table)
	if !ValidTableName(table) {
		return nil, fmt.Errorf("%w: invalid table name", common.ErrorValidation)
	}
	if len(rec.Data) == 0 {
		return nil, fmt.Errorf("%w: record data is empty", common.ErrorValidation)
	}
	sysID := strings.TrimSpace(rec.SysID)
	if sysID != "" && !sysIDPattern.MatchString(sysID) {
		return nil, fmt.Errorf("%w: invalid sys_id", common.ErrorValidation)
	}

	q := url.Values{}
	q.Set("sysparm_exclude_reference_link", "true")

	method, path, action := http.MethodPost, table, models.RecordCreated
	if sysID != "" {
		method, path, action = http.MethodPatch, table+"/"+sysID, models.RecordUpdated
	}

	var body struct {
		Result map[string]any `json:"result"`
	}
	if err := c.do(ctx, cred, method, path, q, rec.Data, &body); err != nil {
		return nil, fmt.Errorf("servicenow %s record: %w", action, err)
	}
	if id, ok := body.Result["sys_id"].(string); ok && id != "" {
		sysID = id
	}
	return &models.RecordResult{Table: table, SysID: sysID, Action: action, Record: body.Result}, nil
}

func mapInternalType(t string) models.FieldType {
	switch strings.ToLower(t) {
	case "string", "char", "translated_text", "translated_field", "html", "url", "email",
		"journal", "journal_input", "multi_two_lines", "guid", "sys_class_name", "choice", "phone_number_e164":
		return models.TypeString
	case "integer", "longint", "decimal", "float", "currency", "price", "percent_complete", "order_index":
		return models.TypeNumber
	case "boolean":
		return models.TypeBoolean
	case "glide_date", "glide_date_time", "due_date", "date", "datetime", "glide_time":
		return models.TypeDate
	case "reference", "document_id", "glide_list":
		return models.TypeReference
	default:
		return models.TypeUnknown
	}
}
