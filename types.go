package moniker

import "github.com/jward/moniker/internal/store"

// Public type aliases for internal store types reachable from the Engine
// API. These are Go type aliases (=), identical to the internal types at
// compile time.

type Store = store.Store
type File = store.File
type Symbol = store.Symbol
type Reexport = store.Reexport
