// Package device defines the vocabulary shared by every resolver stage:
// the noisy identity triple a device reports, the capability tags a
// controller exposes, and the protocol primitives (Tuya datapoints and
// Zigbee clusters) those capabilities are read from.
package device
