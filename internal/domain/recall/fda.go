package recall

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeFDA parses and maps one element of the openFDA results array. An element that is
// not an object carries no recall number and is skipped like one with a blank number.
func DecodeFDA(raw json.RawMessage) (Recall, error) {
	fields, err := ParseFields(raw)
	if err != nil {
		return Recall{}, fmt.Errorf("%w: %w", ErrMissingRecallNumber, err)
	}
	return FromFDA(fields)
}

// FromFDA maps one openFDA food enforcement report.
func FromFDA(f Fields) (Recall, error) {
	recallNumber := strings.TrimSpace(f.String("recall_number"))
	if recallNumber == "" {
		return Recall{}, ErrMissingRecallNumber
	}

	return Recall{
		RecallNumber:             recallNumber,
		Authority:                AuthorityFDA,
		Status:                   f.Text("status"),
		City:                     f.Text("city"),
		State:                    f.Text("state"),
		Country:                  f.Text("country"),
		Classification:           f.Text("classification"),
		ProductType:              f.Text("product_type"),
		EventID:                  f.Text("event_id"),
		RecallingFirm:            f.Text("recalling_firm"),
		Address1:                 f.Text("address_1"),
		Address2:                 f.Text("address_2"),
		PostalCode:               f.Text("postal_code"),
		VoluntaryMandated:        f.Text("voluntary_mandated"),
		InitialFirmNotification:  f.Text("initial_firm_notification"),
		DistributionPattern:      f.Text("distribution_pattern"),
		ProductDescription:       f.Text("product_description"),
		ProductQuantity:          f.Text("product_quantity"),
		Reason:                   f.Text("reason_for_recall"),
		RecallInitDate:           f.Text("recall_initiation_date"),
		CenterClassificationDate: f.Text("center_classification_date"),
		TerminationDate:          f.Text("termination_date"),
		ReportDate:               f.Text("report_date"),
		CodeInfo:                 f.Text("code_info"),
		MoreCodeInfo:             f.Text("more_code_info"),
	}, nil
}
