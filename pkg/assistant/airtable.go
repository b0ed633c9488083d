package assistant

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

var airtableURL = "https://api.airtable.com/v0"

// airtableFAQ is one row of the FAQ table editors maintain in Airtable. Patterns holds
// one pattern per line.
type airtableFAQ struct {
	Patterns string `json:"Patterns"`
	Response string `json:"Response"`
	Order    *int   `json:"Order,omitempty"`
	Status   string `json:"Status"`
}

type airtableRecord struct {
	ID     string      `json:"id"`
	Fields airtableFAQ `json:"fields"`
}

type airtableResponse struct {
	Records []airtableRecord `json:"records"`
	Offset  *string          `json:"offset"`
}

func loadAirtableRecords(client *http.Client, base, table, key string) ([]airtableRecord, error) {
	var records []airtableRecord
	offset := ""

	for {
		reqURL := fmt.Sprintf("%s/%s/%s?pageSize=100", airtableURL, base, url.PathEscape(table))
		if offset != "" {
			reqURL += fmt.Sprintf("&offset=%s", url.QueryEscape(offset))
		}

		req, err := http.NewRequest("GET", reqURL, nil)
		if err != nil {
			return records, err
		}
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", key))
		res, err := client.Do(req)
		if err != nil {
			return records, err
		}
		body, readErr := ioutil.ReadAll(res.Body)
		res.Body.Close()
		if readErr != nil {
			return records, readErr
		}
		if res.StatusCode != http.StatusOK {
			return records, fmt.Errorf("airtable returned status %d", res.StatusCode)
		}

		airtableRes := airtableResponse{}
		if err := json.Unmarshal(body, &airtableRes); err != nil {
			return records, err
		}
		records = append(records, airtableRes.Records...)

		if airtableRes.Offset == nil || *airtableRes.Offset == "" {
			return records, nil
		}
		offset = *airtableRes.Offset
	}
}

// LoadAirtableFAQ loads approved FAQ rows from Airtable, ordered by their Order field.
// Rows without an order keep their table order after the ordered ones.
func LoadAirtableFAQ(client *http.Client, base, table, key string) ([]FAQRecord, error) {
	records, err := loadAirtableRecords(client, base, table, key)
	if err != nil {
		return nil, err
	}

	var rows []airtableFAQ
	for _, rec := range records {
		if rec.Fields.Status != "" && rec.Fields.Status != "Approved" {
			continue
		}
		rows = append(rows, rec.Fields)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Order == nil {
			return false
		}
		if rows[b].Order == nil {
			return true
		}
		return *rows[a].Order < *rows[b].Order
	})

	var faq []FAQRecord
	for _, row := range rows {
		var patterns []string
		for _, line := range strings.Split(row.Patterns, "\n") {
			if pattern := Normalize(line); pattern != "" {
				patterns = append(patterns, pattern)
			}
		}
		if len(patterns) == 0 || strings.TrimSpace(row.Response) == "" {
			continue
		}
		faq = append(faq, FAQRecord{Patterns: patterns, Response: strings.TrimSpace(row.Response)})
	}
	return faq, nil
}
