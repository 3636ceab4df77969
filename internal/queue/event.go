// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderStatusChangedEvent is published after an order's status
// transition is committed.  It carries enough information for
// downstream consumers to log, notify waiting customers, or trigger
// analytics without querying the primary database.
type OrderStatusChangedEvent struct {
    OrderID       uint64  `json:"pedido_id"`
    UserID        *uint64 `json:"usuario_id,omitempty"`
    EsInvitado    bool    `json:"es_invitado"`
    NumeroMesa    *uint32 `json:"numero_mesa,omitempty"`
    OldEstado     string  `json:"estado_anterior"`
    NewEstado     string  `json:"estado_nuevo"`
    TotalCents    uint32  `json:"total_cents"`
    PuntosGanados uint32  `json:"puntos_ganados"`
    ChangedAt     string  `json:"changed_at"`
}
