package floe

import (
	jsoniter "github.com/json-iterator/go"
)

// jsonCodec handles all metadata, schema, and spec JSON in the package.
var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary
