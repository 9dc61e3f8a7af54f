package auth

// Collection identifies a scoped commenting context, either by the
// (network, siteId, articleId) triple or by its numeric id.
type Collection struct {
	Network   string
	SiteID    string
	ArticleID string
	ID        string
}

// Author is an author entry inside a collection authorization. Key lets the
// holder decrypt that author's non-public content.
type Author struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// Authorization is a single granted scope. The union is closed: exactly the
// three generations of scope the auth endpoint hands out.
type Authorization interface {
	isAuthorization()
}

// CollectionAuthorization grants access within one collection. ModeratorKey
// is empty unless the user moderates the collection.
type CollectionAuthorization struct {
	Collection   Collection
	Authors      []Author
	ModeratorKey string
}

// NetworkAuthorization grants moderator status across a whole network.
type NetworkAuthorization struct {
	Network   string
	Moderator bool
}

// SiteAuthorization grants moderator status across one site.
type SiteAuthorization struct {
	SiteID    string
	Moderator bool
}

func (*CollectionAuthorization) isAuthorization() {}
func (*NetworkAuthorization) isAuthorization()    {}
func (*SiteAuthorization) isAuthorization()       {}

// Keys returns the decryption keys this authorization contributes: author
// keys first, then the moderator key if present.
func (a *CollectionAuthorization) Keys() []string {
	keys := make([]string, 0, len(a.Authors)+1)
	for _, author := range a.Authors {
		if author.Key != "" {
			keys = append(keys, author.Key)
		}
	}
	if a.ModeratorKey != "" {
		keys = append(keys, a.ModeratorKey)
	}
	return keys
}
