package dispatcher

import "errors"

// ErrNoWorkerForLanguage is returned when a path's extension is not
// claimed by any registered language, or a language has no running worker
// (§4.H: "Return NoWorkerForLanguage if missing").
var ErrNoWorkerForLanguage = errors.New("no worker for language")
