package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/catalog"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/units"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/infra/excel"
)

// StockLine is an item with its stock rendered for people.
type StockLine struct {
	Item    materials.Item
	Display string
	Short   string
	Check   alerts.StockCheck
}

func stockLine(it materials.Item) StockLine {
	return StockLine{
		Item:    it,
		Display: units.ToDisplay(it.CurrentStock, it.PerUnit()),
		Short:   units.ToShortDisplay(it.CurrentStock, it.PerUnit()),
		Check:   alerts.CheckStockStatus(it.CurrentStock, it.Threshold),
	}
}

// CreateMaterial adds an inventory item. Opening stock goes through the
// ledger so it leaves an adjustment like any other receipt.
func (s *Service) CreateMaterial(ctx context.Context, c users.Caller, cmd CreateMaterial) (*StockLine, error) {
	var out *StockLine
	err := s.run(ctx, "create_material", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			var categoryID int64
			if name := strings.TrimSpace(cmd.Category); name != "" {
				cat, err := u.st.EnsureCategory(ctx, name)
				if err != nil {
					return err
				}
				categoryID = cat.ID
			}
			it, err := u.st.CreateItem(ctx, materials.NewItem{
				Name:          cmd.Name,
				CategoryID:    categoryID,
				PaperSize:     cmd.PaperSize,
				PaperType:     cmd.PaperType,
				Grammage:      cmd.Grammage,
				UnitLabel:     cmd.UnitLabel,
				SheetsPerUnit: cmd.SheetsPerUnit,
				Threshold:     cmd.Threshold,
				UnitCost:      cmd.UnitCost,
			})
			if err != nil {
				return err
			}
			if opening := units.ToSheets(cmd.OpeningReams, cmd.OpeningSheets, it.PerUnit()); opening > 0 {
				mv, err := s.stock.Replenish(ctx, u.st, it.ID, opening, inventory.Note{
					ActorID: c.UserID, Reason: "opening stock",
				})
				if err != nil {
					return err
				}
				u.moved(mv)
				it.CurrentStock = mv.StockAfter
			}
			line := stockLine(*it)
			out = &line
			return nil
		})
	})
	if err == nil {
		s.log.Info("material created", "material_id", out.Item.ID, "name", out.Item.Name, "stock", out.Display, "by", c.UserID)
	}
	return out, err
}

// DeactivateMaterial hides an item from matching and the stock sheet.
// Its history stays.
func (s *Service) DeactivateMaterial(ctx context.Context, c users.Caller, id int64) error {
	return s.run(ctx, "deactivate_material", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			return u.st.SetItemActive(ctx, id, false)
		})
	})
}

func (s *Service) Material(ctx context.Context, c users.Caller, id int64) (*StockLine, error) {
	var out *StockLine
	err := s.run(ctx, "get_material", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) error {
			it, err := st.GetItem(ctx, id)
			if err != nil {
				return err
			}
			line := stockLine(*it)
			out = &line
			return nil
		})
	})
	return out, err
}

// UpdatePricing reprices an item or moves its threshold. Raising the
// threshold can push the item into a worse band, which is reported like a
// stock movement.
func (s *Service) UpdatePricing(ctx context.Context, c users.Caller, cmd UpdatePricing) (*StockLine, error) {
	var out *StockLine
	err := s.run(ctx, "update_pricing", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		if cmd.UnitCost == nil && cmd.Threshold == nil {
			return errs.Invalid("body", "unit_cost or threshold_sheets is required")
		}
		if cmd.UnitCost != nil && cmd.UnitCost.IsNegative() {
			return errs.Invalid("unit_cost", "must be >= 0")
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			it, err := u.st.LockItem(ctx, cmd.MaterialID)
			if err != nil {
				return err
			}
			before := alerts.CheckStockStatus(it.CurrentStock, it.Threshold)
			if cmd.UnitCost != nil {
				it.UnitCost = *cmd.UnitCost
			}
			if cmd.Threshold != nil {
				it.Threshold = *cmd.Threshold
			}
			if err := u.st.UpdatePricing(ctx, it.ID, it.UnitCost, it.Threshold); err != nil {
				return err
			}
			line := stockLine(*it)
			u.moved(inventory.Movement{
				MaterialID:   it.ID,
				MaterialName: it.Name,
				PerUnit:      it.PerUnit(),
				Threshold:    it.Threshold,
				StockBefore:  it.CurrentStock,
				StockAfter:   it.CurrentStock,
				Before:       before,
				After:        line.Check,
			})
			out = &line
			return nil
		})
	})
	if err == nil {
		s.log.Info("material repriced", "material_id", out.Item.ID, "unit_cost", money(out.Item.UnitCost),
			"threshold", out.Item.Threshold, "status", out.Check.Status, "by", c.UserID)
	}
	return out, err
}

func (s *Service) Categories(ctx context.Context, c users.Caller) ([]catalog.Category, error) {
	var out []catalog.Category
	err := s.run(ctx, "list_categories", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) (err error) {
			out, err = st.ListCategories(ctx)
			return err
		})
	})
	return out, err
}

func (s *Service) Category(ctx context.Context, c users.Caller, id int64) (*catalog.Category, error) {
	var out *catalog.Category
	err := s.run(ctx, "get_category", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) (err error) {
			out, err = st.GetCategory(ctx, id)
			return err
		})
	})
	return out, err
}

// SetCategoryActive retires or restores a category. Items keep it either way.
func (s *Service) SetCategoryActive(ctx context.Context, c users.Caller, id int64, active bool) (*catalog.Category, error) {
	var out *catalog.Category
	err := s.run(ctx, "set_category_active", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) (err error) {
			out, err = u.st.SetCategoryActive(ctx, id, active)
			return err
		})
	})
	return out, err
}

func (s *Service) StockView(ctx context.Context, c users.Caller, onlyActive bool) ([]StockLine, error) {
	var out []StockLine
	err := s.run(ctx, "stock_view", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) error {
			items, err := st.ListItems(ctx, onlyActive)
			if err != nil {
				return err
			}
			out = make([]StockLine, 0, len(items))
			for _, it := range items {
				out = append(out, stockLine(it))
			}
			return nil
		})
	})
	return out, err
}

func (s *Service) Replenish(ctx context.Context, c users.Caller, cmd Replenish) (inventory.Movement, error) {
	var out inventory.Movement
	err := s.run(ctx, "replenish", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		reason := strings.TrimSpace(cmd.Reason)
		if reason == "" {
			reason = "replenish"
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			it, err := u.st.GetItem(ctx, cmd.MaterialID)
			if err != nil {
				return err
			}
			mv, err := s.stock.Replenish(ctx, u.st, it.ID, units.ToSheets(cmd.Reams, cmd.Sheets, it.PerUnit()),
				inventory.Note{ActorID: c.UserID, Reason: reason})
			if err != nil {
				return err
			}
			u.moved(mv)
			out = mv
			return nil
		})
	})
	if err == nil {
		s.log.Info("stock replenished", "material_id", out.MaterialID, "sheets", out.Actual,
			"stock", units.ToDisplay(out.StockAfter, out.PerUnit), "by", c.UserID)
	}
	return out, err
}

func (s *Service) ItemAdjustments(ctx context.Context, c users.Caller, materialID int64, limit int) ([]inventory.Adjustment, error) {
	var out []inventory.Adjustment
	err := s.run(ctx, "item_adjustments", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) error {
			if _, err := st.GetItem(ctx, materialID); err != nil {
				return err
			}
			var err error
			out, err = st.ListAdjustments(ctx, materialID, limit)
			return err
		})
	})
	return out, err
}

// ExportStock renders the active items as a stocktake sheet.
func (s *Service) ExportStock(ctx context.Context, c users.Caller) ([]byte, error) {
	var out []byte
	err := s.run(ctx, "export_stock", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		var items []materials.Item
		if err := s.read(ctx, func(ctx context.Context, st Store) (err error) {
			items, err = st.ListItems(ctx, true)
			return err
		}); err != nil {
			return err
		}
		var err error
		out, err = excel.ExportStock(items)
		return err
	})
	return out, err
}

type Stocktake struct {
	Counted   int
	Unchanged int
	Movements []inventory.Movement
}

// ImportStocktake sets every counted item to its counted stock. The file
// is parsed before the transaction; one bad row rejects the whole file.
func (s *Service) ImportStocktake(ctx context.Context, c users.Caller, data []byte) (*Stocktake, error) {
	var out *Stocktake
	err := s.run(ctx, "import_stocktake", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		counts, err := excel.ParseStocktake(data)
		if err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			res := &Stocktake{Counted: len(counts)}
			for _, cnt := range counts {
				it, err := u.st.GetItem(ctx, cnt.MaterialID)
				if err != nil {
					return fmt.Errorf("row %d: %w", cnt.Row, err)
				}
				counted := units.ToSheets(cnt.Reams, cnt.Sheets, it.PerUnit())
				mv, err := s.stock.Reconcile(ctx, u.st, it.ID, counted, inventory.Note{
					ActorID: c.UserID, Reason: "stocktake",
				})
				if err != nil {
					return fmt.Errorf("row %d: %w", cnt.Row, err)
				}
				if mv.Actual == 0 {
					res.Unchanged++
					continue
				}
				u.moved(mv)
				res.Movements = append(res.Movements, mv)
			}
			out = res
			return nil
		})
	})
	if err == nil {
		s.log.Info("stocktake imported", "counted", out.Counted, "changed", len(out.Movements), "by", c.UserID)
	}
	return out, err
}
