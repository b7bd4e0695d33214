package notion

import (
	"bytes"
	"encoding/json"
)

// Property types the extractor knows how to read.
const (
	PropertyTypeStatus   = "status"
	PropertyTypeSelect   = "select"
	PropertyTypeDate     = "date"
	PropertyTypeTitle    = "title"
	PropertyTypeRichText = "rich_text"
	PropertyTypeURL      = "url"
)

// SearchFilter restricts search results to one object kind.
type SearchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

// PageFilter selects page objects only.
var PageFilter = &SearchFilter{Value: "page", Property: "object"}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query       string        `json:"query,omitempty"`
	Filter      *SearchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Object     string `json:"object"`
	Results    []Page `json:"results"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// Page is a workspace page as returned by search.
type Page struct {
	Object         string     `json:"object"`
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	CreatedTime    string     `json:"created_time,omitempty"`
	LastEditedTime string     `json:"last_edited_time,omitempty"`
	Properties     Properties `json:"properties"`
}

// Property returns the named property, or the zero (absent) value.
func (p Page) Property(name string) PropertyValue {
	if p.Properties == nil {
		return PropertyValue{}
	}
	return p.Properties[name]
}

// Properties maps property names to values. A properties block that is not
// a JSON object decodes to nil.
type Properties map[string]PropertyValue

// UnmarshalJSON implements json.Unmarshaler.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*p = nil
		return nil
	}

	props := make(Properties, len(raw))
	for name, value := range raw {
		var v PropertyValue
		// PropertyValue.UnmarshalJSON never fails.
		_ = v.UnmarshalJSON(value)
		props[name] = v
	}
	*p = props
	return nil
}

// SelectOption is the payload of status and select properties.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is the payload of date properties. Start is an ISO 8601 date or
// date-time string.
type DateValue struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

// TextContent is the text variant of a rich text object.
type TextContent struct {
	Content string `json:"content"`
}

// RichText is one segment of a title or rich_text property.
type RichText struct {
	Type      string       `json:"type"`
	PlainText string       `json:"plain_text"`
	Href      string       `json:"href,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
}

// PropertyValue is a tagged union over the property kinds. Each variant is
// nil or empty when absent. Decoding never fails: a payload with an
// unexpected shape leaves its variant absent and is listed in Malformed.
type PropertyValue struct {
	ID       string
	Type     string
	Status   *SelectOption
	Select   *SelectOption
	Date     *DateValue
	Title    []RichText
	RichText []RichText
	URL      *string

	// Malformed lists the keys whose payload could not be decoded.
	Malformed []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	*v = PropertyValue{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		v.Malformed = append(v.Malformed, "property")
		return nil
	}

	decodeField(fields, "id", &v.ID, &v.Malformed)
	decodeField(fields, "type", &v.Type, &v.Malformed)
	decodeField(fields, PropertyTypeStatus, &v.Status, &v.Malformed)
	decodeField(fields, PropertyTypeSelect, &v.Select, &v.Malformed)
	decodeField(fields, PropertyTypeDate, &v.Date, &v.Malformed)
	decodeField(fields, PropertyTypeTitle, &v.Title, &v.Malformed)
	decodeField(fields, PropertyTypeRichText, &v.RichText, &v.Malformed)
	decodeField(fields, PropertyTypeURL, &v.URL, &v.Malformed)

	return nil
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T, malformed *[]string) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		*malformed = append(*malformed, key)
		return
	}
	*dst = value
}

// StatusName returns status.name, or "" when absent.
func (v PropertyValue) StatusName() string {
	if v.Status == nil {
		return ""
	}
	return v.Status.Name
}

// DateStart returns date.start, or "" when absent.
func (v PropertyValue) DateStart() string {
	if v.Date == nil {
		return ""
	}
	return v.Date.Start
}

// FirstTitleText returns title[0].text.content, or "" when absent.
func (v PropertyValue) FirstTitleText() string {
	if len(v.Title) == 0 || v.Title[0].Text == nil {
		return ""
	}
	return v.Title[0].Text.Content
}
