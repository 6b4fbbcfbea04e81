package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/receipt"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// Carts is the part of the cart service a checkout touches.
type Carts interface {
	Get(ctx context.Context, itemID string) (cart.Item, error)
	MarkPaid(ctx context.Context, itemID string) error
	MarkUnpaid(ctx context.Context, itemID string) error
}

// Products is the part of the catalogue a checkout touches.
type Products interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
	DecrementStock(ctx context.Context, id string, amount int) (product.Product, error)
	RestoreStock(ctx context.Context, id string, amount int) (product.Product, error)
}

// Service places orders.
type Service struct {
	carts    Carts
	products Products
	receipts receipt.Repository
	workers  int
	log      logrus.FieldLogger
}

func NewService(carts Carts, products Products, receipts receipt.Repository, workers int, log logrus.FieldLogger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{carts: carts, products: products, receipts: receipts, workers: workers, log: log}
}

// PlaceOrder turns the selected cart lines into a receipt. Stock is taken off
// every product, each line is linked to the receipt and marked paid. If any
// step fails, everything already written is undone and the cause is returned.
func (s *Service) PlaceOrder(ctx context.Context, id user.Identity, in PlaceOrderInput) (receipt.Receipt, error) {
	if !id.Authenticated() {
		return receipt.Receipt{}, user.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return receipt.Receipt{}, fmt.Errorf("failed to place order: %w", err)
	}
	if err := s.preflight(ctx, id, in); err != nil {
		return receipt.Receipt{}, fmt.Errorf("failed to place order: %w", err)
	}

	rc, err := s.receipts.Create(ctx, receipt.Receipt{
		UserID:        id.UserID,
		TotalAmount:   in.TotalAmount,
		Courier:       in.Courier,
		PaymentOption: in.PaymentOption,
	})
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("failed to place order: %w", err)
	}
	log := s.log.WithFields(logrus.Fields{"receipt": rc.ID, "user": id.UserID})

	sg := &saga{}
	sg.add("delete receipt", func(ctx context.Context) error {
		return s.receipts.Delete(ctx, rc.ID)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, item := range in.Items {
		item := item
		g.Go(func() error {
			return s.settle(gctx, rc.ID, item, sg)
		})
	}
	if err := g.Wait(); err != nil {
		failed := sg.rollback(context.WithoutCancel(ctx), log)
		log.WithError(err).WithField("compensationFailures", failed).Warn("order rolled back")
		return receipt.Receipt{}, fmt.Errorf("failed to place order: %w", err)
	}

	log.WithFields(logrus.Fields{"items": len(in.Items), "total": in.TotalAmount.String()}).Info("order placed")
	return rc, nil
}

// settle applies one line: stock first so a shortage stops the line before
// anything points at it, then the link, then the payment flag. Writes are not
// cancelled midway, so every write that lands has its compensation recorded.
// A cancelled ctx stops the line between steps.
func (s *Service) settle(ctx context.Context, receiptID string, item Item, sg *saga) error {
	wctx := context.WithoutCancel(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.products.DecrementStock(wctx, item.Product.ID, item.Quantity); err != nil {
		return err
	}
	sg.add("restore stock "+item.Product.ID, func(ctx context.Context) error {
		_, err := s.products.RestoreStock(ctx, item.Product.ID, item.Quantity)
		return err
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	link, err := s.receipts.CreateLink(wctx, receiptID, item.CartItemID)
	if err != nil {
		return fmt.Errorf("link cart item %s: %w", item.CartItemID, err)
	}
	sg.add("delete link "+link.ID, func(ctx context.Context) error {
		return s.receipts.DeleteLink(ctx, link.ID)
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.carts.MarkPaid(wctx, item.CartItemID); err != nil {
		return fmt.Errorf("mark cart item %s paid: %w", item.CartItemID, err)
	}
	sg.add("mark unpaid "+item.CartItemID, func(ctx context.Context) error {
		return s.carts.MarkUnpaid(ctx, item.CartItemID)
	})
	return nil
}

// preflight checks the whole order against current state without writing:
// cart lines and stock per product. The amount charged is compared with the
// item total for the log only.
func (s *Service) preflight(ctx context.Context, id user.Identity, in PlaceOrderInput) error {
	requested := make(map[string]int)
	for _, item := range in.Items {
		requested[item.Product.ID] += item.Quantity
	}
	productIDs := make([]string, 0, len(requested))
	for pid := range requested {
		productIDs = append(productIDs, pid)
	}

	products := make([]product.Product, len(productIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, item := range in.Items {
		item := item
		g.Go(func() error {
			return s.checkCartItem(gctx, id, item)
		})
	}
	for i, pid := range productIDs {
		i, pid := i, pid
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, pid)
			if err != nil {
				return fmt.Errorf("product %s: %w", pid, err)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		if p.Quantity < requested[p.ID] {
			return &product.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Quantity,
				Requested: requested[p.ID],
			}
		}
		prices[p.ID] = p.Price
	}

	lineTotal := decimal.Zero
	for _, item := range in.Items {
		lineTotal = lineTotal.Add(prices[item.Product.ID].Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	// The charged amount is the caller's to decide (discounts, shipping), a
	// difference is only reported.
	if !in.TotalAmount.Equal(lineTotal) {
		s.log.WithFields(logrus.Fields{
			"user":      id.UserID,
			"charged":   in.TotalAmount.String(),
			"lineTotal": lineTotal.String(),
		}).Warn("total amount differs from the item total")
	}
	return nil
}

func (s *Service) checkCartItem(ctx context.Context, id user.Identity, item Item) error {
	line, err := s.carts.Get(ctx, item.CartItemID)
	if errors.Is(err, cart.ErrNotFound) {
		return fmt.Errorf("%w: cart item %s does not exist", ErrInvalidItem, item.CartItemID)
	}
	if err != nil {
		return err
	}
	if line.UserID != id.UserID {
		return fmt.Errorf("%w: cart item %s does not exist", ErrInvalidItem, item.CartItemID)
	}
	if line.StatusPayment {
		return fmt.Errorf("%w: %s", cart.ErrAlreadyPaid, item.CartItemID)
	}
	if line.ProductID != item.Product.ID {
		return fmt.Errorf("%w: cart item %s holds product %s, not %s", ErrInvalidItem, item.CartItemID, line.ProductID, item.Product.ID)
	}
	return nil
}
