package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/billora/internal/client/domain"
	"github.com/smallbiznis/billora/internal/clock"
	companydomain "github.com/smallbiznis/billora/internal/company/domain"
	"github.com/smallbiznis/billora/internal/document/domain"
	"github.com/smallbiznis/billora/internal/notification"
	"github.com/smallbiznis/billora/internal/providers/email"
	signaturedomain "github.com/smallbiznis/billora/internal/signature/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	CompanyRepo   companydomain.Repository
	ClientRepo    clientdomain.Repository
	SignatureRepo signaturedomain.Repository
	Email         email.Provider
	Notifier      notification.Dispatcher
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	companyRepo   companydomain.Repository
	clientRepo    clientdomain.Repository
	signatureRepo signaturedomain.Repository
	email         email.Provider
	notifier      notification.Dispatcher
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("document.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		companyRepo:   p.CompanyRepo,
		clientRepo:    p.ClientRepo,
		signatureRepo: p.SignatureRepo,
		email:         p.Email,
		notifier:      p.Notifier,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDocumentRequest) (domain.Document, error) {
	switch req.Kind {
	case domain.KindQuote, domain.KindInvoice, domain.KindCreditNote:
	default:
		return domain.Document{}, domain.ErrInvalidKind
	}
	if err := domain.ValidateItems(req.Items); err != nil {
		return domain.Document{}, err
	}

	company, err := s.companyRepo.FindFirst(ctx, s.db)
	if err != nil {
		return domain.Document{}, err
	}
	if company == nil {
		return domain.Document{}, companydomain.ErrNotConfigured
	}

	client, err := s.clientRepo.FindByID(ctx, s.db, req.ClientID)
	if err != nil {
		return domain.Document{}, err
	}
	if client == nil {
		return domain.Document{}, clientdomain.ErrNotFound
	}

	exempt := company.VATExempt()
	items := buildItems(s.genID, req.Items, exempt)
	totals := domain.ComputeTotals(items, exempt)

	currency := req.Currency
	if currency == "" {
		currency = client.Currency
	}
	if currency == "" {
		currency = company.Currency
	}

	now := s.clock.Now().UTC()
	doc := domain.Document{
		ID:                   s.genID.Generate(),
		Kind:                 req.Kind,
		Status:               domain.StatusDraft,
		ClientID:             client.ID,
		CompanyID:            company.ID,
		RecurrenceTemplateID: req.RecurrenceTemplateID,
		GeneratedForDate:     req.GeneratedForDate,
		Currency:             currency,
		PaymentMethod:        req.PaymentMethod,
		PaymentDetails:       req.PaymentDetails,
		Notes:                req.Notes,
		TotalHT:              totals.TotalHT,
		TotalVAT:             totals.TotalVAT,
		TotalTTC:             totals.TotalTTC,
		IsActive:             true,
		ValidUntil:           req.ValidUntil,
		Metadata:             datatypes.JSONMap{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Insert(ctx, s.db, &doc, items); err != nil {
		return domain.Document{}, err
	}

	s.notifier.Dispatch(ctx, notification.NewEvent(notification.EventDocumentCreated, eventPayload(doc)))
	return doc, nil
}

// Edit recomputes totals from the submitted item set and invalidates every
// signature tied to the document: signed content no longer matches.
func (s *Service) Edit(ctx context.Context, req domain.EditDocumentRequest) (domain.Document, error) {
	if err := domain.ValidateItems(req.Items); err != nil {
		return domain.Document{}, err
	}

	doc, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return domain.Document{}, err
	}
	if doc == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	if !doc.IsActive {
		return domain.Document{}, domain.ErrInactive
	}

	company, err := s.companyRepo.FindFirst(ctx, s.db)
	if err != nil {
		return domain.Document{}, err
	}
	exempt := company != nil && company.VATExempt()

	items := buildItems(s.genID, req.Items, exempt)
	totals := domain.ComputeTotals(items, exempt)

	doc.TotalHT = totals.TotalHT
	doc.TotalVAT = totals.TotalVAT
	doc.TotalTTC = totals.TotalTTC
	if req.PaymentMethod != "" {
		doc.PaymentMethod = req.PaymentMethod
	}
	if req.PaymentDetails != "" {
		doc.PaymentDetails = req.PaymentDetails
	}
	if req.Notes != "" {
		doc.Notes = req.Notes
	}
	if req.ValidUntil != nil {
		doc.ValidUntil = req.ValidUntil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ReplaceItems(ctx, tx, doc.ID, items); err != nil {
			return err
		}
		if err := s.repo.UpdateTotals(ctx, tx, doc); err != nil {
			return err
		}
		return s.signatureRepo.DeactivateByDocument(ctx, tx, doc.ID)
	})
	if err != nil {
		return domain.Document{}, err
	}

	return *doc, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Document{}, err
	}
	if doc == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	return *doc, nil
}

func (s *Service) ListItems(ctx context.Context, documentID snowflake.ID) ([]domain.LineItem, error) {
	return s.repo.FindItems(ctx, s.db, documentID)
}

func (s *Service) MarkAsPaid(ctx context.Context, id snowflake.ID) (domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Document{}, err
	}
	if doc == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	if doc.Kind != domain.KindInvoice {
		return domain.Document{}, domain.ErrInvalidKind
	}
	if !doc.IsActive {
		return domain.Document{}, domain.ErrInactive
	}
	if doc.Status == domain.StatusPaid {
		return *doc, nil
	}
	if !domain.CanTransition(doc.Kind, doc.Status, domain.StatusPaid) {
		return domain.Document{}, domain.ErrInvalidTransition
	}

	paidAt := s.clock.Now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, s.db, doc.ID, doc.Status, domain.StatusPaid, map[string]any{
		"paid_at": paidAt,
	})
	if err != nil {
		return domain.Document{}, err
	}
	if !updated {
		return s.resolveRace(ctx, doc.ID, domain.StatusPaid)
	}

	doc.Status = domain.StatusPaid
	doc.PaidAt = &paidAt
	s.notifier.Dispatch(ctx, notification.NewEvent(notification.EventDocumentPaid, eventPayload(*doc)))
	return *doc, nil
}

func (s *Service) Transition(ctx context.Context, id snowflake.ID, target domain.Status) (domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Document{}, err
	}
	if doc == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	if !doc.IsActive {
		return domain.Document{}, domain.ErrInactive
	}
	if doc.Status == target {
		return *doc, nil
	}
	if !domain.KnownStatus(doc.Kind, target) || !domain.CanTransition(doc.Kind, doc.Status, target) {
		return domain.Document{}, domain.ErrInvalidTransition
	}

	fields := map[string]any{}
	if target == domain.StatusPaid {
		fields["paid_at"] = s.clock.Now().UTC()
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, doc.ID, doc.Status, target, fields)
	if err != nil {
		return domain.Document{}, err
	}
	if !updated {
		return s.resolveRace(ctx, doc.ID, target)
	}

	doc.Status = target
	if event := statusEvent(target); event != "" {
		s.notifier.Dispatch(ctx, notification.NewEvent(event, eventPayload(*doc)))
	}
	return *doc, nil
}

func (s *Service) Send(ctx context.Context, id snowflake.ID) (domain.Document, error) {
	doc, err := s.Transition(ctx, id, domain.StatusSent)
	if err != nil {
		return domain.Document{}, err
	}

	client, err := s.clientRepo.FindByID(ctx, s.db, doc.ClientID)
	if err != nil || client == nil || client.ContactEmail == "" {
		s.log.Warn("document sent without email delivery",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return doc, nil
	}

	subject := fmt.Sprintf("%s %s", docLabel(doc.Kind), doc.ID.String())
	body := fmt.Sprintf("<p>Please find your %s. Total due: %.2f %s.</p>",
		docLabel(doc.Kind), domain.RoundAmount(doc.TotalTTC), doc.Currency)
	if err := s.email.Send(ctx, []string{client.ContactEmail}, subject, body); err != nil {
		// Delivery failure never rolls back the status change.
		s.log.Warn("email delivery failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("to", client.ContactEmail),
			zap.Error(err),
		)
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	doc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return domain.ErrNotFound
	}
	return s.repo.SetActive(ctx, s.db, id, false)
}

// resolveRace re-reads after a guarded update lost. The later writer is a
// no-op when it wanted the same target, a conflict otherwise.
func (s *Service) resolveRace(ctx context.Context, id snowflake.ID, target domain.Status) (domain.Document, error) {
	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Document{}, err
	}
	if current == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	if current.Status == target {
		return *current, nil
	}
	return domain.Document{}, domain.ErrTransitionRace
}

func buildItems(genID *snowflake.Node, inputs []domain.ItemInput, exempt bool) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		itemType := in.ItemType
		if itemType == "" {
			itemType = domain.ItemTypeService
		}
		items = append(items, domain.LineItem{
			ID:          genID.Generate(),
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			VATRate:     in.VATRate,
			ItemType:    itemType,
			SortOrder:   in.SortOrder,
		})
	}
	if exempt {
		domain.ApplyVATExemption(items)
	}
	return items
}

func eventPayload(doc domain.Document) map[string]any {
	return map[string]any{
		"document_id": doc.ID.String(),
		"kind":        string(doc.Kind),
		"status":      string(doc.Status),
		"currency":    doc.Currency,
		"total_ttc":   domain.RoundAmount(doc.TotalTTC),
	}
}

func statusEvent(status domain.Status) string {
	switch status {
	case domain.StatusSent:
		return notification.EventDocumentSent
	case domain.StatusSigned:
		return notification.EventDocumentSigned
	case domain.StatusRejected:
		return notification.EventDocumentRejected
	case domain.StatusPaid:
		return notification.EventDocumentPaid
	default:
		return ""
	}
}

func docLabel(kind domain.Kind) string {
	switch kind {
	case domain.KindQuote:
		return "Quote"
	case domain.KindCreditNote:
		return "Credit note"
	default:
		return "Invoice"
	}
}
