// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package ctxt

import (
	_ "github.com/gviegas/present/driver/fake"
	_ "github.com/gviegas/present/driver/vk"
)
