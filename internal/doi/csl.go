package doi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/opted-eu/metafill/internal/record"
)

// cslItem is the subset of CSL-JSON (and Crossref's work message, which uses
// the same field names) that the inventory form needs.
type cslItem struct {
	DOI            string       `json:"DOI"`
	URL            string       `json:"URL"`
	Type           string       `json:"type"`
	Title          stringOrList `json:"title"`
	ContainerTitle stringOrList `json:"container-title"`
	Abstract       string       `json:"abstract"`
	Created        *cslDate     `json:"created"`
	Issued         *cslDate     `json:"issued"`
	Link           []cslLink    `json:"link"`
	Author         []cslAuthor  `json:"author"`
}

type cslDate struct {
	DateTime  string  `json:"date-time"`
	DateParts [][]any `json:"date-parts"`
}

type cslLink struct {
	URL string `json:"URL"`
}

type cslAuthor struct {
	Given    string `json:"given"`
	Family   string `json:"family"`
	Literal  string `json:"literal"`
	ORCID    string `json:"ORCID"`
	Sequence string `json:"sequence"`
}

// stringOrList decodes a JSON string or the first element of a string array.
type stringOrList string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			*s = stringOrList(list[0])
		} else {
			*s = ""
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = stringOrList(str)
	return nil
}

// year returns the year of a CSL date: the date-time prefix when present,
// otherwise the first date part.
func (d *cslDate) year() string {
	if d == nil {
		return ""
	}
	if d.DateTime != "" {
		return record.YearPrefix(d.DateTime)
	}
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return ""
	}
	switch v := d.DateParts[0][0].(type) {
	case float64:
		return strconv.Itoa(int(v))
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

// ParseCSL converts a CSL-JSON document into a record.
func ParseCSL(body []byte) (record.Record, error) {
	var item cslItem
	if err := json.Unmarshal(body, &item); err != nil {
		return record.Record{}, fmt.Errorf("%w: parsing CSL JSON: %v", ErrInvalidResponse, err)
	}
	return mapCSL(item), nil
}

// mapCSL maps CSL fields onto the inventory form fields.
func mapCSL(item cslItem) record.Record {
	r := record.Record{
		URL:       item.URL,
		DOI:       item.DOI,
		Journal:   strings.TrimSpace(string(item.ContainerTitle)),
		Name:      strings.TrimSpace(string(item.Title)),
		PaperKind: item.Type,
	}
	r.Title = r.Name

	if item.Created != nil {
		r.PublishedDate = item.Created.year()
	} else if item.Issued != nil {
		r.PublishedDate = item.Issued.year()
	}

	if len(item.Link) > 0 && item.Link[0].URL != "" {
		r.URL = item.Link[0].URL
	}

	for i, a := range item.Author {
		var name string
		if a.Family != "" {
			name = record.FormatInverted(a.Given, a.Family)
		} else {
			name = strings.TrimSpace(a.Literal)
		}
		if name == "" {
			continue
		}
		r.Authors = append(r.Authors, name)
		r.Contributors = append(r.Contributors, record.Contributor{
			Name:     name,
			Given:    a.Given,
			Family:   a.Family,
			ORCID:    trimORCID(a.ORCID),
			Sequence: i,
		})
	}

	if item.Abstract != "" {
		r.Description = item.Abstract
	}

	return r
}

// trimORCID strips the orcid.org URL prefix.
func trimORCID(s string) string {
	s = strings.TrimPrefix(s, "https://orcid.org/")
	return strings.TrimPrefix(s, "http://orcid.org/")
}
