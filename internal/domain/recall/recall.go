package recall

// Recall is the unified row shared by every authority. Nil fields are stored as NULL.
type Recall struct {
	RecallNumber             string  `json:"recall_number"`
	Authority                string  `json:"authority"`
	Status                   *string `json:"status"`
	City                     *string `json:"city"`
	State                    *string `json:"state"`
	Country                  *string `json:"country"`
	Classification           *string `json:"classification"`
	ProductType              *string `json:"product_type"`
	EventID                  *string `json:"event_id"`
	RecallingFirm            *string `json:"recalling_firm"`
	Address1                 *string `json:"address_1"`
	Address2                 *string `json:"address_2"`
	PostalCode               *string `json:"postal_code"`
	VoluntaryMandated        *string `json:"voluntary_mandated"`
	InitialFirmNotification  *string `json:"initial_firm_notification"`
	DistributionPattern      *string `json:"distribution_pattern"`
	ProductDescription       *string `json:"product_description"`
	ProductQuantity          *string `json:"product_quantity"`
	Reason                   *string `json:"reason"`
	RecallInitDate           *string `json:"recall_init_date"`
	CenterClassificationDate *string `json:"center_classification_date"`
	TerminationDate          *string `json:"termination_date"`
	ReportDate               *string `json:"report_date"`
	CodeInfo                 *string `json:"code_info"`
	MoreCodeInfo             *string `json:"more_code_info"`
	URL                      *string `json:"url"`
	Summary                  *string `json:"summary"`
}
