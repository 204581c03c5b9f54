// Package model содержит доменные сущности магазина пригласительных открыток.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleRetailer   Role = "retailer"
	RoleWholesaler Role = "wholesaler"
)

// WholesalerStatus описывает состояние оптового доступа пользователя.
type WholesalerStatus string

const (
	WholesalerStatusNone     WholesalerStatus = "none"
	WholesalerStatusPending  WholesalerStatus = "pending"
	WholesalerStatusApproved WholesalerStatus = "approved"
	WholesalerStatusDeclined WholesalerStatus = "declined"
)

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID               int64
	Name             string
	Email            string
	Phone            string
	PasswordHash     []byte
	Roles            []Role
	WholesalerStatus WholesalerStatus
	Banned           bool
	CreatedAt        time.Time
}

// HasRole сообщает, есть ли у пользователя указанная роль.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CardCategory описывает категорию открытки.
type CardCategory string

const (
	CategoryMarriage   CardCategory = "marriage"
	CategoryBirthday   CardCategory = "birthday"
	CategoryFestival   CardCategory = "festival"
	CategoryBabyShower CardCategory = "baby-shower"
	CategoryBusiness   CardCategory = "business"
)

// ValidCategory проверяет, что категория входит в закрытый перечень.
func ValidCategory(c CardCategory) bool {
	switch c {
	case CategoryMarriage, CategoryBirthday, CategoryFestival, CategoryBabyShower, CategoryBusiness:
		return true
	}
	return false
}

// Specifications содержит свободные характеристики открытки.
type Specifications struct {
	Material     string `json:"material,omitempty"`
	Dimensions   string `json:"dimensions,omitempty"`
	Printing     string `json:"printing,omitempty"`
	Weight       string `json:"weight,omitempty"`
	Color        string `json:"color,omitempty"`
	Customizable bool   `json:"customizable"`
}

// Card представляет товар каталога. Денежные поля хранятся в пайсах.
type Card struct {
	ID                    int64
	Name                  string
	Category              CardCategory
	Description           string
	Price                 int64
	Discount              int64
	WholesalePrice        int64
	AvailableForWholesale bool
	Stock                 int64
	Rating                float64
	ReviewsCount          int64
	Popular               bool
	Trending              bool
	PrimaryImage          string
	SecondaryImage        string
	Specifications        Specifications
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CartLine описывает позицию корзины вместе с актуальными данными открытки.
type CartLine struct {
	CardID   int64
	Name     string
	Category CardCategory
	Price    int64
	Discount int64
	Image    string
	Quantity int64
}

// Cart представляет корзину пользователя.
type Cart struct {
	UserID int64
	Lines  []CartLine
}

// Total возвращает сумму корзины по актуальным ценам на момент чтения.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Price * l.Quantity
	}
	return total
}

// TotalDiscount возвращает суммарную скидку корзины по актуальным данным.
func (c *Cart) TotalDiscount() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Discount * l.Quantity
	}
	return total
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReturned  OrderStatus = "returned"
)

// PaymentMethod описывает способ оплаты заказа.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentCreditCard PaymentMethod = "Credit Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "Net Banking"
)

// ValidPaymentMethod проверяет, что способ оплаты входит в перечень.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCOD, PaymentCreditCard, PaymentUPI, PaymentNetBanking:
		return true
	}
	return false
}

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ValidPaymentStatus проверяет, что состояние оплаты входит в перечень.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ShippingAddress содержит снимок адреса доставки на момент оформления заказа.
type ShippingAddress struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	AlternatePhone string `json:"alternate_phone,omitempty"`
	State          string `json:"state"`
	City           string `json:"city"`
	Street         string `json:"street"`
	Pincode        string `json:"pincode"`
	Landmark       string `json:"landmark,omitempty"`
	AddressType    string `json:"address_type,omitempty"`
}

// OrderItem содержит снимок позиции заказа: цена и название фиксируются
// на момент оформления и не меняются при изменении каталога.
type OrderItem struct {
	CardID   int64
	Name     string
	Category CardCategory
	Price    int64
	Discount int64
	Quantity int64
	Image    string
}

// StatusChange описывает одну запись журнала смены статуса заказа.
type StatusChange struct {
	Status    OrderStatus
	ChangedAt time.Time
}

// Order представляет заказ пользователя.
type Order struct {
	ID              int64
	UID             string
	UserID          int64
	Status          OrderStatus
	Items           []OrderItem
	TotalAmount     int64
	Discount        int64
	Tax             int64
	ShippingFee     int64
	FinalAmount     int64
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	TransactionID   string
	ShippingAddress ShippingAddress
	DeliveryPartner string
	TrackingID      string
	StatusHistory   []StatusChange
	PlacedAt        time.Time
}

// Review представляет отзыв пользователя на открытку. Один пользователь может
// оставить не больше одного отзыва на открытку.
type Review struct {
	ID        int64
	CardID    int64
	UserID    int64
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRating проверяет, что оценка отзыва лежит в диапазоне от 1 до 5.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// WholesalerApplication представляет заявку пользователя на оптовый доступ.
type WholesalerApplication struct {
	ID              int64
	UserID          int64
	Email           string
	BusinessName    string
	OwnerName       string
	GSTNumber       string
	BusinessAddress string
	ContactNumber   string
	Status          WholesalerStatus
	AppliedAt       time.Time
	ReviewedAt      *time.Time
}
