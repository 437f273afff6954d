package auth

// OAuthIdentity is the user information a federated provider vouches for.
type OAuthIdentity struct {
	Email      string
	Name       *string
	AvatarURL  *string
	ProviderID string
}
