package uacore

// Version is the uacore module version. It is exported through the
// build_info metric and the publish engine's startup log.
const Version = "0.1.0"
