package models

import "time"

type Customer struct {
    ID         int64     `json:"id" db:"id"`
    Email      string    `json:"email" db:"email"`
    FirstName  string    `json:"nombre" db:"first_name"`
    LastName   string    `json:"apellidos" db:"last_name"`
    Phone      string    `json:"telefono" db:"phone"`
    Address    string    `json:"direccion" db:"address"`
    City       string    `json:"ciudad" db:"city"`
    PostalCode string    `json:"codigo_postal" db:"postal_code"`
    IsAdmin    bool      `json:"es_admin" db:"is_admin"`
    CreatedAt  time.Time `json:"fecha_creacion" db:"created_at"`
}

type RegisterRequest struct {
    Email      string `json:"email"`
    Password   string `json:"password"`
    FirstName  string `json:"nombre"`
    LastName   string `json:"apellidos"`
    Phone      string `json:"telefono"`
    Address    string `json:"direccion"`
    City       string `json:"ciudad"`
    PostalCode string `json:"codigo_postal"`
}
