// Package postgres manages the shared database/sql connection used by the
// reliability core's repositories. It opens the pool through the pgx stdlib
// driver and applies SQL migrations with golang-migrate on connect.
package postgres
