// Command satkit manages hierarchies of multi-modal speech recordings and
// resolves scenarios of derived-data requests against per-directory manifests.
package main
