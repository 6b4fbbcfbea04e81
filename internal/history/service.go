package history

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/storefront-backend/internal/receipt"
	"github.com/wichananm65/storefront-backend/internal/user"
)

type Service struct {
	receipts receipt.Repository
	opts     Options
	log      logrus.FieldLogger
}

func NewService(receipts receipt.Repository, opts Options, log logrus.FieldLogger) *Service {
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Service{receipts: receipts, opts: opts, log: log}
}

// FetchPurchaseHistory returns one page of the caller's receipts, newest
// first, each with the products it paid for. Links that cannot be read or no
// longer resolve only shrink a receipt's product list; only a failure to list
// receipts fails the call.
func (s *Service) FetchPurchaseHistory(ctx context.Context, id user.Identity, page int) ([]Entry, error) {
	if !id.Authenticated() {
		return []Entry{}, user.ErrUnauthenticated
	}
	if page < 1 {
		page = 1
	}

	receipts, err := s.receipts.ListByUser(ctx, id.UserID, page, s.opts.PageSize)
	if err != nil {
		s.log.WithError(err).WithField("user", id.UserID).Error("listing receipts failed")
		return []Entry{}, fmt.Errorf("list receipts of %s: %w", id.UserID, err)
	}

	perReceipt := make([][]receipt.Link, len(receipts.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, rc := range receipts.Items {
		i, rc := i, rc
		g.Go(func() error {
			perReceipt[i] = s.fetchReceiptCart(gctx, rc.ID)
			return nil
		})
	}
	_ = g.Wait()

	var links []receipt.Link
	for _, ls := range perReceipt {
		links = append(links, ls...)
	}

	entries := make([]Entry, 0, len(receipts.Items))
	for _, rc := range receipts.Items {
		entries = append(entries, Entry{
			ID:            rc.ID,
			UserID:        rc.UserID,
			TotalAmount:   rc.TotalAmount,
			Courier:       rc.Courier,
			PaymentOption: rc.PaymentOption,
			Created:       rc.Created,
			Products:      joinProducts(rc.ID, links),
		})
	}
	return entries, nil
}

// joinProducts picks the receipt's links and keeps those whose cart line and
// product both resolved.
func joinProducts(receiptID string, links []receipt.Link) []ProductLine {
	lines := make([]ProductLine, 0)
	for _, l := range links {
		if l.ReceiptID != receiptID || l.Cart == nil || l.Cart.Product == nil {
			continue
		}
		p := l.Cart.Product
		line := ProductLine{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: l.Cart.Quantity,
		}
		if p.ImageURL != "" {
			url := p.ImageURL
			line.ImageURL = &url
		}
		lines = append(lines, line)
	}
	return lines
}

// fetchReceiptCart reads every link of a receipt. A failed read is retried
// after a fixed backoff; once retries run out the receipt gets no links.
func (s *Service) fetchReceiptCart(ctx context.Context, receiptID string) []receipt.Link {
	log := s.log.WithField("receipt", receiptID)

	for attempt := 0; ; attempt++ {
		links, err := s.allLinks(ctx, receiptID)
		if err == nil {
			return links
		}
		if attempt >= s.opts.Retries {
			log.WithError(err).WithField("attempts", attempt+1).Error("giving up on receipt cart links")
			return []receipt.Link{}
		}
		log.WithError(err).WithField("attempt", attempt+1).Warn("reading receipt cart links failed, retrying")

		select {
		case <-ctx.Done():
			log.WithError(ctx.Err()).Error("giving up on receipt cart links")
			return []receipt.Link{}
		case <-time.After(s.opts.Backoff):
		}
	}
}

func (s *Service) allLinks(ctx context.Context, receiptID string) ([]receipt.Link, error) {
	var links []receipt.Link
	for page := 1; ; page++ {
		res, err := s.receipts.ListLinks(ctx, receiptID, page, s.opts.PageSize)
		if err != nil {
			return nil, err
		}
		links = append(links, res.Items...)
		if page >= res.TotalPages {
			return links, nil
		}
	}
}
