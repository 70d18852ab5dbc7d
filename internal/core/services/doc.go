// Package services implements the driving ports on top of the engine
// packages. CodingService keeps one open unit at a time and hands every
// change to the annotation sink; UnitService creates units from raw text.
package services
