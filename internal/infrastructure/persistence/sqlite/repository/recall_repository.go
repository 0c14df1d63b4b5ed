package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
	"recallrelay/internal/infrastructure/persistence/sqlite/model"
	"recallrelay/internal/ports"
)

type RecallRepository struct {
	db *gorm.DB
}

var _ ports.RecallRepository = (*RecallRepository)(nil)

func NewRecallRepository(db *gorm.DB) *RecallRepository {
	return &RecallRepository{db: db}
}

func (r *RecallRepository) dbWithContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return r.db.WithContext(ctx), nil
}

func (r *RecallRepository) EnsureSchema(ctx context.Context) error {
	db, err := r.dbWithContext(ctx)
	if err != nil {
		return err
	}
	return ensureTable(db, &model.Report{})
}

func (r *RecallRepository) UpsertRecall(ctx context.Context, recall domainrecall.Recall) error {
	db, err := r.dbWithContext(ctx)
	if err != nil {
		return err
	}

	recallNumber := strings.TrimSpace(recall.RecallNumber)
	if recallNumber == "" {
		return errors.New("recall number is required")
	}
	if strings.TrimSpace(recall.Authority) == "" {
		return errors.New("authority is required")
	}

	row := toReportRow(recall)
	row.RecallNumber = recallNumber
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recall_number"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrapf(err, "upsert recall %s", recallNumber)
	}
	return nil
}

func (r *RecallRepository) ListRecalls(ctx context.Context, filter ports.RecallFilter) ([]domainrecall.Recall, error) {
	db, err := r.dbWithContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Report{})
	if authority := strings.TrimSpace(filter.Authority); authority != "" {
		query = query.Where("authority = ?", authority)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Report
	if err := query.Order("recall_number asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recalls")
	}

	items := make([]domainrecall.Recall, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromReportRow(row))
	}
	return items, nil
}

func (r *RecallRepository) GetRecall(ctx context.Context, recallNumber string, authority string) (domainrecall.Recall, error) {
	db, err := r.dbWithContext(ctx)
	if err != nil {
		return domainrecall.Recall{}, err
	}

	query := db.Where("recall_number = ?", strings.TrimSpace(recallNumber))
	if authority = strings.TrimSpace(authority); authority != "" {
		query = query.Where("authority = ?", authority)
	}

	var row model.Report
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainrecall.Recall{}, ports.ErrRecallNotFound
		}
		return domainrecall.Recall{}, errs.Wrap(err, "query recall by number")
	}
	return fromReportRow(row), nil
}

// ensureTable is CREATE TABLE IF NOT EXISTS; existing tables are never altered.
func ensureTable(db *gorm.DB, value any) error {
	migrator := db.Migrator()
	if migrator.HasTable(value) {
		return nil
	}
	if err := migrator.CreateTable(value); err != nil {
		if migrator.HasTable(value) {
			// Another writer created it between the check and the create.
			return nil
		}
		return errs.Wrap(err, "create table")
	}
	return nil
}

func toReportRow(r domainrecall.Recall) model.Report {
	return model.Report{
		RecallNumber:             r.RecallNumber,
		Authority:                r.Authority,
		Status:                   r.Status,
		City:                     r.City,
		State:                    r.State,
		Country:                  r.Country,
		Classification:           r.Classification,
		ProductType:              r.ProductType,
		EventID:                  r.EventID,
		RecallingFirm:            r.RecallingFirm,
		Address1:                 r.Address1,
		Address2:                 r.Address2,
		PostalCode:               r.PostalCode,
		VoluntaryMandated:        r.VoluntaryMandated,
		InitialFirmNotification:  r.InitialFirmNotification,
		DistributionPattern:      r.DistributionPattern,
		ProductDescription:       r.ProductDescription,
		ProductQuantity:          r.ProductQuantity,
		Reason:                   r.Reason,
		RecallInitDate:           r.RecallInitDate,
		CenterClassificationDate: r.CenterClassificationDate,
		TerminationDate:          r.TerminationDate,
		ReportDate:               r.ReportDate,
		CodeInfo:                 r.CodeInfo,
		MoreCodeInfo:             r.MoreCodeInfo,
		URL:                      r.URL,
		Summary:                  r.Summary,
	}
}

func fromReportRow(row model.Report) domainrecall.Recall {
	return domainrecall.Recall{
		RecallNumber:             row.RecallNumber,
		Authority:                row.Authority,
		Status:                   row.Status,
		City:                     row.City,
		State:                    row.State,
		Country:                  row.Country,
		Classification:           row.Classification,
		ProductType:              row.ProductType,
		EventID:                  row.EventID,
		RecallingFirm:            row.RecallingFirm,
		Address1:                 row.Address1,
		Address2:                 row.Address2,
		PostalCode:               row.PostalCode,
		VoluntaryMandated:        row.VoluntaryMandated,
		InitialFirmNotification:  row.InitialFirmNotification,
		DistributionPattern:      row.DistributionPattern,
		ProductDescription:       row.ProductDescription,
		ProductQuantity:          row.ProductQuantity,
		Reason:                   row.Reason,
		RecallInitDate:           row.RecallInitDate,
		CenterClassificationDate: row.CenterClassificationDate,
		TerminationDate:          row.TerminationDate,
		ReportDate:               row.ReportDate,
		CodeInfo:                 row.CodeInfo,
		MoreCodeInfo:             row.MoreCodeInfo,
		URL:                      row.URL,
		Summary:                  row.Summary,
	}
}
