package model

import "time"

// Order status values as stored in pedidos.estado.  An order starts
// in StatusPending and is moved forward by staff; StatusDelivered and
// StatusCancelled are terminal.
const (
    StatusPending   = "pendiente"
    StatusConfirmed = "confirmado"
    StatusPreparing = "en_preparacion"
    StatusDelivered = "entregado"
    StatusCancelled = "cancelado"
)

// Payment method values as stored in pedidos.metodo_pago.  Exactly
// three methods exist: a digital wallet paid by scanning a QR (with a
// receipt image attached), cash on delivery, and card on delivery.
const (
    MethodWalletQR = "billetera_qr"
    MethodCash     = "efectivo"
    MethodCard     = "tarjeta"
)

// TerminalStatus reports whether an order status admits no further
// transitions.
func TerminalStatus(s string) bool {
    return s == StatusDelivered || s == StatusCancelled
}

// ValidStatus reports whether s is one of the known order states.
func ValidStatus(s string) bool {
    switch s {
    case StatusPending, StatusConfirmed, StatusPreparing, StatusDelivered, StatusCancelled:
        return true
    }
    return false
}

// Order records a customer's (or guest's) placed order as stored in
// the `pedidos` table.  Guest orders have no UserID and instead carry
// the self-reported name, optional phone and the table number decoded
// from the QR code.  Monetary amounts are integer cents.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – registered customer, nil for guests.
//  EsInvitado       – true when placed through the table QR guest flow.
//  NombreInvitado   – guest display name (guest orders only).
//  TelefonoInvitado – optional guest phone, exactly 9 digits when set.
//  NumeroMesa       – table number for table-scoped orders.
//  EmpleadoID       – waitstaff assigned to the table, nil when no
//                     same-day assignment matched.
//  SubtotalCents    – sum of captured line prices.
//  DescuentoCents   – discount applied from a redeemed reward.
//  TotalCents       – subtotal minus discount.
//  MetodoPago       – one of the Method* constants.
//  Estado           – one of the Status* constants.
//  ReciboPath       – object-storage path of the payment receipt, if any.
//  DescuentoID      – the consumed descuentos_activos row, if any.
//  PuntosGanados    – points credited when the order is delivered;
//                     always 0 for guest orders.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Order struct {
    ID               uint64     // pedidos.id
    UserID           *uint64    // pedidos.usuario_id (nullable)
    EsInvitado       bool       // pedidos.es_invitado
    NombreInvitado   *string    // pedidos.nombre_invitado (nullable)
    TelefonoInvitado *string    // pedidos.telefono_invitado (nullable)
    NumeroMesa       *uint32    // pedidos.numero_mesa (nullable)
    EmpleadoID       *uint64    // pedidos.empleado_id (nullable)
    SubtotalCents    uint32     // pedidos.subtotal_cents
    DescuentoCents   uint32     // pedidos.descuento_cents
    TotalCents       uint32     // pedidos.total_cents
    MetodoPago       string     // pedidos.metodo_pago
    Estado           string     // pedidos.estado
    ReciboPath       *string    // pedidos.recibo_path (nullable)
    DescuentoID      *uint64    // pedidos.descuento_id (nullable)
    PuntosGanados    uint32     // pedidos.puntos_ganados
    CreatedAt        time.Time  // pedidos.created_at
    UpdatedAt        time.Time  // pedidos.updated_at
}

// OrderItem is a line of an order as stored in `detalle_pedidos`.
// PrecioCents is the unit price captured at order time and is never
// recalculated from the live product price.
//
// Fields:
//  ID          – primary key identifier.
//  OrderID     – owning order.
//  ProductID   – ordered product.
//  Cantidad    – quantity, always >= 1.
//  PrecioCents – unit price in cents at the moment of ordering.
type OrderItem struct {
    ID          uint64 // detalle_pedidos.id
    OrderID     uint64 // detalle_pedidos.pedido_id
    ProductID   uint64 // detalle_pedidos.producto_id
    Cantidad    uint32 // detalle_pedidos.cantidad
    PrecioCents uint32 // detalle_pedidos.precio_cents
}
