package model

// Report is one recall row. Every authority writes the full column set so an upsert
// replaces the previous row entirely.
type Report struct {
	RecallNumber             string  `gorm:"column:recall_number;type:text;primaryKey;not null"`
	Authority                string  `gorm:"column:authority;type:text;not null;index"`
	Status                   *string `gorm:"column:status;type:text"`
	City                     *string `gorm:"column:city;type:text"`
	State                    *string `gorm:"column:state;type:text"`
	Country                  *string `gorm:"column:country;type:text"`
	Classification           *string `gorm:"column:classification;type:text"`
	ProductType              *string `gorm:"column:product_type;type:text"`
	EventID                  *string `gorm:"column:event_id;type:text"`
	RecallingFirm            *string `gorm:"column:recalling_firm;type:text"`
	Address1                 *string `gorm:"column:address_1;type:text"`
	Address2                 *string `gorm:"column:address_2;type:text"`
	PostalCode               *string `gorm:"column:postal_code;type:text"`
	VoluntaryMandated        *string `gorm:"column:voluntary_mandated;type:text"`
	InitialFirmNotification  *string `gorm:"column:initial_firm_notification;type:text"`
	DistributionPattern      *string `gorm:"column:distribution_pattern;type:text"`
	ProductDescription       *string `gorm:"column:product_description;type:text"`
	ProductQuantity          *string `gorm:"column:product_quantity;type:text"`
	Reason                   *string `gorm:"column:reason;type:text"`
	RecallInitDate           *string `gorm:"column:recall_init_date;type:text"`
	CenterClassificationDate *string `gorm:"column:center_classification_date;type:text"`
	TerminationDate          *string `gorm:"column:termination_date;type:text"`
	ReportDate               *string `gorm:"column:report_date;type:text"`
	CodeInfo                 *string `gorm:"column:code_info;type:text"`
	MoreCodeInfo             *string `gorm:"column:more_code_info;type:text"`
	URL                      *string `gorm:"column:url;type:text"`
	Summary                  *string `gorm:"column:summary;type:text"`
}

func (Report) TableName() string {
	return "reports"
}
