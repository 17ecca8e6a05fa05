// Package types defines the document tree produced by the node parser, the
// source node abstraction, relational row helpers, and the standard errors
// shared by the parser, persisters, and the migration driver.
package types
