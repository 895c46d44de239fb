// Package printing contains the Printing bounded context.
// It models silent receipt printing: ephemeral print jobs, printer
// descriptors, the tagged dispatch result and the typed failure kinds
// callers use to tell "no printer configured" from "spool rejected".
package printing
