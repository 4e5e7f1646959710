// Package reshape carries module-level metadata.
package reshape

// Version is the reshape release version.
const Version = "0.1.0"
