// Package types defines the catalogue entities (Project, Catalogue),
// category definitions, the partial-update patch, configuration, and the
// standard errors shared by the brm storage and generation packages.
package types
