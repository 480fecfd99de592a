package domain

import "errors"

const (
	MsgNameRequired       = "De naam van het veilingitem mag niet leeg zijn."
	MsgNegativePrice      = "De startprijs mag niet negatief zijn."
	MsgPricePrecision     = "De startprijs mag maximaal twee decimalen hebben."
	MsgStartInPast        = "De starttijd mag niet in het verleden liggen."
	MsgEndTooSoon         = "Eindtijdstip moet minimaal 12 uur na het starttijdstip liggen."
	MsgItemNotFound       = "Het veilingitem is niet gevonden."
	MsgItemHasNoBids      = "Het veilingitem is niet gevonden en heeft daarom geen biedingen."
	MsgOnlySellerCancels  = "Alleen de verkoper kan de verkoop annuleren."
	MsgOwnItemBid         = "Je kunt niet bieden op je eigen veilingitem."
	MsgBidTooLow          = "Het nieuwe bod moet minimaal 5% hoger zijn dan het huidige hoogste bod."
	MsgBidRejected        = "Het item bestaat niet, is al afgelopen, is geannuleerd of je kunt niet bieden op je eigen item."
	MsgPaymentNotPossible = "Betaling is niet mogelijk."
	MsgNotHighestBidder   = "Je bent niet de hoogste bieder of het item is al betaald."
)

// Returned by ItemStore.PlaceBid when the atomic re-check fails.
var (
	ErrBidRejected = errors.New("bid rejected: item closed, cancelled, missing or owned by bidder")
	ErrBidTooLow   = errors.New("bid rejected: below minimum increment")
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NewNotFoundError(msg string) error {
	return &NotFoundError{Message: msg}
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{Message: msg}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}
