package drive115

// Item is one file or folder entry. The provider keeps folder ids (cid)
// and file ids (fid) in separate namespaces; ID carries whichever applies
// and IsDir tells them apart.
type Item struct {
	ID    string
	Name  string
	IsDir bool
	Size  int64
}

// ShareInfo is the snapshot of a share's current content.
type ShareInfo struct {
	Title string
	Items []Item
	// ItemIDs is the id set of the share's top-level entries, sorted so
	// callers can fingerprint it deterministically.
	ItemIDs []string
}

type ReceiveStatus int

const (
	// ReceiveOK means the provider accepted the transfer.
	ReceiveOK ReceiveStatus = iota
	// ReceiveDuplicate means the provider deduplicated the transfer
	// ("already received"). Whether that counts as success depends on a
	// verification listing by the caller.
	ReceiveDuplicate
	// ReceiveRejected is any other provider-level refusal; Reason carries
	// the provider's message verbatim.
	ReceiveRejected
)

// ReceiveResult is the typed outcome of a transfer request. Provider-level
// rejections are results, not errors; hard failures (network, timeout)
// surface as errors instead.
type ReceiveResult struct {
	Status ReceiveStatus
	Reason string
}

type respEnvelope struct {
	State bool   `json:"state"`
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

func (r respEnvelope) reason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Msg
}

type rawEntry struct {
	Cid  string `json:"cid"`
	Fid  string `json:"fid"`
	Name string `json:"n"`
	Size int64  `json:"s"`
}

func (e rawEntry) item() Item {
	it := Item{Name: e.Name, Size: e.Size}
	if e.Fid != "" {
		it.ID = e.Fid
	} else {
		it.ID = e.Cid
		it.IsDir = true
	}
	return it
}

type pathEntry struct {
	Cid  string `json:"cid"`
	Name string `json:"name"`
}

type listResp struct {
	respEnvelope
	Data []rawEntry  `json:"data"`
	Path []pathEntry `json:"path"`
}

type shareSnapResp struct {
	respEnvelope
	Data struct {
		ShareTitle string     `json:"share_title"`
		Count      int        `json:"count"`
		List       []rawEntry `json:"list"`
	} `json:"data"`
}

type addFolderResp struct {
	respEnvelope
	Data *struct {
		FileID   string `json:"file_id"`
		Cid      string `json:"cid"`
		FileName string `json:"file_name"`
	} `json:"data"`
}

type userInfoResp struct {
	respEnvelope
	Data struct {
		UserName string `json:"user_name"`
	} `json:"data"`
}
