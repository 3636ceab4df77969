package model

import "time"

// Reward is an admin-managed catalog entry in the `recompensas`
// table mapping a points cost to a percentage discount.  Customers
// can only read active rewards.
//
// Fields:
//  ID             – primary key identifier.
//  Nombre         – reward display name.
//  PuntosReq      – points debited on redemption.
//  DescuentoPct   – percentage taken off the order subtotal (1..100).
//  IsActive       – hidden from customers when false.
//  CreatedAt      – timestamp of creation.
type Reward struct {
    ID           uint64    // recompensas.id
    Nombre       string    // recompensas.nombre
    PuntosReq    uint32    // recompensas.puntos_requeridos
    DescuentoPct uint8     // recompensas.descuento_pct
    IsActive     bool      // recompensas.is_active
    CreatedAt    time.Time // recompensas.created_at
}

// ActiveDiscount is a redeemed reward awaiting use, stored in the
// `descuentos_activos` table.  At most one unconsumed row may exist
// per user; the invariant is enforced by the rewards ledger under a
// row lock, not by a storage constraint.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owner of the discount.
//  RewardID     – redeemed reward.
//  DescuentoPct – percentage captured at redemption time.
//  Consumido    – true once applied to an order.
//  OrderID      – order the discount was applied to (set on consume).
//  CreatedAt    – redemption timestamp.
//  ConsumedAt   – when the discount was applied (null until consumed).
type ActiveDiscount struct {
    ID           uint64     // descuentos_activos.id
    UserID       uint64     // descuentos_activos.usuario_id
    RewardID     uint64     // descuentos_activos.recompensa_id
    DescuentoPct uint8      // descuentos_activos.descuento_pct
    Consumido    bool       // descuentos_activos.consumido
    OrderID      *uint64    // descuentos_activos.pedido_id (nullable)
    CreatedAt    time.Time  // descuentos_activos.created_at
    ConsumedAt   *time.Time // descuentos_activos.consumed_at (nullable)
}

// PointsBalance is the per-user loyalty balance in `puntos_usuario`.
// The balance grows when an order reaches the delivered status and
// shrinks on redemption; it never goes negative because redemption is
// rejected up front when the balance is insufficient.
//
// Fields:
//  UserID    – owner of the balance (one row per user).
//  Puntos    – current balance.
//  UpdatedAt – timestamp of last accrual or redemption.
type PointsBalance struct {
    UserID    uint64    // puntos_usuario.usuario_id
    Puntos    int64     // puntos_usuario.puntos
    UpdatedAt time.Time // puntos_usuario.updated_at
}
