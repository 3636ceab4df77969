package model

import "time"

// Category represents a row in the `categorias` table.  Categories
// group menu products for browsing and are managed from the back
// office.
//
// Fields:
//  ID        – primary key identifier.
//  Nombre    – unique category name.
//  Orden     – display position on the public menu.
//  IsActive  – hidden from the public menu when false.
//  CreatedAt – timestamp of creation.
type Category struct {
    ID        uint64    // categorias.id
    Nombre    string    // categorias.nombre
    Orden     uint32    // categorias.orden
    IsActive  bool      // categorias.is_active
    CreatedAt time.Time // categorias.created_at
}

// Product represents a row in the `productos` table.  Prices are
// stored in integer cents to avoid floating point drift; the order
// pipeline captures the price at order time so later edits here do
// not rewrite history.
//
// Fields:
//  ID          – primary key identifier.
//  CategoryID  – owning category.
//  Nombre      – product display name.
//  Descripcion – optional menu description.
//  PrecioCents – unit price in cents.
//  ImagenURL   – optional image reference shown on the menu.
//  Disponible  – whether the product can currently be ordered.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Product struct {
    ID          uint64    // productos.id
    CategoryID  uint64    // productos.categoria_id
    Nombre      string    // productos.nombre
    Descripcion *string   // productos.descripcion (nullable)
    PrecioCents uint32    // productos.precio_cents
    ImagenURL   *string   // productos.imagen_url (nullable)
    Disponible  bool      // productos.disponible
    CreatedAt   time.Time // productos.created_at
    UpdatedAt   time.Time // productos.updated_at
}
