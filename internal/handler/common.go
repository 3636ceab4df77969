package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/mesaqr/table-ordering/internal/config"     // runtime configuration
    "github.com/mesaqr/table-ordering/internal/notify"     // in-process status fan-out
    "github.com/mesaqr/table-ordering/internal/repository" // repository holds data access layer
    "github.com/mesaqr/table-ordering/internal/storage"    // receipt object storage
    "github.com/mesaqr/table-ordering/internal/tablecode"  // QR table code encoder
)

// AdminHandler bundles the repositories the back office manipulates.
type AdminHandler struct {
    Cfg        config.Config
    Orders     *repository.OrderRepo
    Products   *repository.ProductRepo
    Categories *repository.CategoryRepo
    Rewards    *repository.RewardRepo
    Staff      *repository.StaffRepo
    Receipts   *storage.ReceiptStore
    Codes      *tablecode.Encoder
    Hub        *notify.Hub
}

// NewAdminHandler constructs an AdminHandler and panics if any dependency is nil.
func NewAdminHandler(cfg config.Config, orders *repository.OrderRepo, products *repository.ProductRepo,
    categories *repository.CategoryRepo, rewards *repository.RewardRepo, staff *repository.StaffRepo,
    receipts *storage.ReceiptStore, codes *tablecode.Encoder, hub *notify.Hub) *AdminHandler {
    if orders == nil || products == nil || categories == nil || rewards == nil || staff == nil || codes == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{
        Cfg:        cfg,
        Orders:     orders,
        Products:   products,
        Categories: categories,
        Rewards:    rewards,
        Staff:      staff,
        Receipts:   receipts,
        Codes:      codes,
        Hub:        hub,
    }
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}
