package recall

import (
	"encoding/json"
	"strings"
)

const usdaEnglish = "English"

// DecodeUSDA parses and maps one element of the FSIS snapshot. An element that is not an
// object is a malformed record and fails.
func DecodeUSDA(raw json.RawMessage) (Recall, error) {
	fields, err := ParseFields(raw)
	if err != nil {
		return Recall{}, err
	}
	return FromUSDA(fields)
}

// FromUSDA maps one FSIS recall API record. Only English records are kept; the API
// publishes a Spanish translation of most notices under the same recall number.
func FromUSDA(f Fields) (Recall, error) {
	recallNumber := strings.TrimSpace(f.String("field_recall_number"))
	if recallNumber == "" {
		return Recall{}, ErrMissingRecallNumber
	}
	if f.String("langcode") != usdaEnglish {
		return Recall{}, ErrNotEnglish
	}

	return Recall{
		RecallNumber:             recallNumber,
		Authority:                AuthorityUSDA,
		Status:                   f.Text("field_active_notice"),
		State:                    f.Text("field_states"),
		Classification:           f.Text("field_recall_classification"),
		ProductType:              f.Text("field_processing"),
		RecallingFirm:            f.Text("field_title"),
		DistributionPattern:      f.Text("field_distro_list"),
		ProductDescription:       f.Text("field_product_items"),
		ProductQuantity:          f.Text("field_qty_recovered"),
		Reason:                   f.Text("field_recall_reason"),
		CenterClassificationDate: StripHyphens(f.Text("field_recall_date")),
		TerminationDate:          StripHyphens(f.Text("field_closed_date")),
		ReportDate:               f.Text("field_last_modified"),
		URL:                      f.Text("field_recall_url"),
		Summary:                  f.Text("field_summary"),
	}, nil
}
