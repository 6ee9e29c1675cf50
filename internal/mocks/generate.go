package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name FeatureSink --dir ../usecase --output usecase --outpkg usecasemock --filename feature_sink_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ReferenceLoader --dir ../usecase --output usecase --outpkg usecasemock --filename reference_loader_mock.go
