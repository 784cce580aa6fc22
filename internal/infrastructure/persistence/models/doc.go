// Package models contains the GORM persistence models. Domain entities stay
// free of ORM tags; each model converts with ToDomain / FromDomain.
package models
