// Package license implements the entitlement core of the QTX license
// server: the license record model, the verification decision procedure,
// the device transfer and reset protocols, and the proof-of-possession
// code generator.
//
// The engines in this package are decision functions plus a single persist
// call. They do not retry, they do not own timeouts, and they treat the
// backing store as an external collaborator behind the Store interface.
// Read-modify-write sequences are serialized per license key so that
// concurrent claims on the same unbound key resolve deterministically.
package license
